package crisis

import "MateGuard/internal/models"

// HotlineContact 危机热线条目
type HotlineContact struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

// ResourceNotice 高危消息触发时立即展示给用户的自助资源
type ResourceNotice struct {
	Title    string           `json:"title"`
	Message  string           `json:"message"`
	Contacts []HotlineContact `json:"contacts"`
}

var criticalNotice = ResourceNotice{
	Title:   "IMMEDIATE CRISIS SUPPORT",
	Message: "If you're in immediate danger, please call emergency services.",
	Contacts: []HotlineContact{
		{Name: "Emergency Services", Number: "000"},
		{Name: "Lifeline", Number: "13 11 14"},
		{Name: "Crisis Text Line", Number: "Text HOME to 741741"},
	},
}

var highNotice = ResourceNotice{
	Title:   "Crisis Support Available",
	Message: "We're concerned about you. Please reach out for support.",
	Contacts: []HotlineContact{
		{Name: "Lifeline", Number: "13 11 14"},
		{Name: "Beyond Blue", Number: "1300 22 4636"},
		{Name: "Mental Health Crisis Line", Number: "1800 011 511"},
	},
}

// NoticeFor returns the resource notice for a triggering risk level.
func NoticeFor(level models.RiskLevel) ResourceNotice {
	if level == models.RiskCritical {
		return criticalNotice
	}
	return highNotice
}

// CrisisService 区域危机服务目录条目（只读展示数据）
type CrisisService struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	Phone          string   `json:"phone"`
	Country        string   `json:"country"`
	Region         []string `json:"region"`
	ServiceType    string   `json:"serviceType"`
	IsAvailable24h bool     `json:"isAvailable24h"`
	OperatingHours string   `json:"operatingHours,omitempty"`
	Description    string   `json:"description"`
	Website        string   `json:"website,omitempty"`
}

var serviceDirectory = []CrisisService{
	{ID: 1, Name: "Lifeline", Phone: "13 11 14", Country: "AU", Region: []string{"National"},
		ServiceType: "crisis_support", IsAvailable24h: true,
		Description: "24/7 crisis support and suicide prevention services."},
	{ID: 2, Name: "Beyond Blue", Phone: "1300 22 4636", Country: "AU", Region: []string{"National"},
		ServiceType: "mental_health", IsAvailable24h: true,
		Description: "Support for anxiety, depression and suicide prevention."},
	{ID: 3, Name: "Mental Health Crisis Line", Phone: "1800 011 511", Country: "AU", Region: []string{"NSW"},
		ServiceType: "crisis_support", IsAvailable24h: true,
		Description: "NSW mental health crisis telephone service."},
	{ID: 4, Name: "Suicide Call Back Service", Phone: "1300 659 467", Country: "AU", Region: []string{"National"},
		ServiceType: "crisis_support", IsAvailable24h: true,
		Description: "Telephone and online counselling for people at risk."},
	{ID: 5, Name: "Kids Helpline", Phone: "1800 55 1800", Country: "AU", Region: []string{"National"},
		ServiceType: "youth", IsAvailable24h: true,
		Description: "Counselling for young people aged 5 to 25."},
}

// ServicesForRegion filters the directory: a service matches when it
// lists the region explicitly or is national.
func ServicesForRegion(region string) []CrisisService {
	out := make([]CrisisService, 0, len(serviceDirectory))
	for _, s := range serviceDirectory {
		for _, r := range s.Region {
			if r == region || r == "National" {
				out = append(out, s)
				break
			}
		}
	}
	return out
}
