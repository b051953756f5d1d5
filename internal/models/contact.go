package models

// 紧急联系人，加密存储在 secure store，不走数据库表
type EmergencyContact struct {
	ID           int64  `json:"id"`           // 创建时分配，毫秒时间戳，不可变
	Name         string `json:"name"`
	Phone        string `json:"phone"`        // E.164 风格自由文本，不强校验
	Relationship string `json:"relationship"` // family / friend / professional / other
	IsPrimary    bool   `json:"isPrimary"`
	Verified     bool   `json:"verified"` // 预留给后续验证流程，本服务不置位
}

// MaxEmergencyContacts 每个用户的联系人上限
const MaxEmergencyContacts = 10

var validRelationships = map[string]bool{
	"family":       true,
	"friend":       true,
	"professional": true,
	"other":        true,
}

func ValidRelationship(r string) bool { return validRelationships[r] }
