package types

// HookPoint names an extension point where registered hooks may transform a record
type HookPoint string

const (
	HookPreloadIOCCreate      HookPoint = "on_preload_ioc_create"
	HookPostloadIOCCreate     HookPoint = "on_postload_ioc_create"
	HookPreloadIOCUpdate      HookPoint = "on_preload_ioc_update"
	HookPostloadIOCUpdate     HookPoint = "on_postload_ioc_update"
	HookPostloadIOCDelete     HookPoint = "on_postload_ioc_delete"
	HookPostloadIOCCommented  HookPoint = "on_postload_ioc_commented"
	HookPostloadIOCCommentUpd HookPoint = "on_postload_ioc_comment_update"
	HookPostloadIOCCommentDel HookPoint = "on_postload_ioc_comment_delete"
	HookPostloadAlertCreate   HookPoint = "on_postload_alert_create"
)

// AllHookPoints returns every hook point the application invokes
func AllHookPoints() []HookPoint {
	return []HookPoint{
		HookPreloadIOCCreate,
		HookPostloadIOCCreate,
		HookPreloadIOCUpdate,
		HookPostloadIOCUpdate,
		HookPostloadIOCDelete,
		HookPostloadIOCCommented,
		HookPostloadIOCCommentUpd,
		HookPostloadIOCCommentDel,
		HookPostloadAlertCreate,
	}
}

// IsValid checks if the hook point is known
func (h HookPoint) IsValid() bool {
	for _, p := range AllHookPoints() {
		if p == h {
			return true
		}
	}
	return false
}

func (h HookPoint) String() string {
	return string(h)
}
