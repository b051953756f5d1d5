package capability

import "context"

// Type 紧急能力类型
type Type string

const (
	Location      Type = "location"
	SMS           Type = "sms"
	Phone         Type = "phone"
	Contacts      Type = "contacts"
	Notifications Type = "notifications"
)

// All lists every capability the crisis flow can use.
var All = []Type{Location, SMS, Phone, Contacts, Notifications}

// State 平台权限查询结果。"unsupported" 表示平台没有该能力，
// 与用户拒绝（denied）是两种不同的结论。
type State string

const (
	StateGranted     State = "granted"
	StateDenied      State = "denied"
	StatePrompt      State = "prompt"
	StateUnsupported State = "unsupported"
)

// Status is the permission snapshot stored and shown to the user.
type Status struct {
	Granted     bool `json:"granted"`
	Denied      bool `json:"denied"`
	Prompt      bool `json:"prompt"`
	Unsupported bool `json:"unsupported,omitempty"`
}

// StatusOf converts a platform state into the stored snapshot form.
func StatusOf(s State) Status {
	return Status{
		Granted:     s == StateGranted,
		Denied:      s == StateDenied,
		Prompt:      s == StatePrompt,
		Unsupported: s == StateUnsupported,
	}
}

// DeniedStatus is the degraded result used whenever a platform call fails.
func DeniedStatus() Status {
	return Status{Denied: true}
}

// UnsupportedStatus marks a capability the platform does not provide.
func UnsupportedStatus() Status {
	return Status{Denied: true, Unsupported: true}
}

// Permissions 五项能力的权限快照
type Permissions struct {
	Location      Status `json:"location"`
	SMS           Status `json:"sms"`
	Phone         Status `json:"phone"`
	Contacts      Status `json:"contacts"`
	Notifications Status `json:"notifications"`
}

// Recorder receives diagnostic records for capability failures and offline
// fallbacks. Implementations must never block or fail the caller.
type Recorder interface {
	Record(action string, payload map[string]interface{})
}

type nopRecorder struct{}

func (nopRecorder) Record(string, map[string]interface{}) {}

// NopRecorder discards all records.
func NopRecorder() Recorder { return nopRecorder{} }

// PermissionChecker 单项能力的权限检查/请求接口
type PermissionChecker interface {
	RequestPermission(ctx context.Context) (State, error)
}
