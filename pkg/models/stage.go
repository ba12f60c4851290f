package models

// Stage is a named checkpoint inside the login or posting workflows.
// Failures are tagged with the stage they occurred in so an operator
// can tell exactly where the flow stopped.
type Stage string

const (
	// Login flow
	StageStartLogin   Stage = "start_login"
	StageVerifyOTP    Stage = "verify_otp"
	StageSessionCheck Stage = "session_check"
	StageLogout       Stage = "logout"

	// Posting flow, in pipeline order
	StageOpenNew           Stage = "open_new"
	StageCategoryFirst     Stage = "maybe_category_first"
	StagePickCategory      Stage = "pick_category"
	StageUploadImage       Stage = "upload_image"
	StageFillTitle         Stage = "fill_title"
	StageFillDescription   Stage = "fill_description"
	StageClickNext1        Stage = "click_next_1"
	StageWaitAfterNext1    Stage = "wait_after_next_1"
	StagePickCategoryLater Stage = "pick_category_if_list"
	StageFillPrice         Stage = "fill_price"
	StageLocationCheck     Stage = "location_check"
	StageClickNext2        Stage = "click_next_2"
	StageContactPrefs      Stage = "contact_prefs"
	StageFinalSubmit       Stage = "final_submit"

	// Housekeeping
	StageSaveState Stage = "save_state"
)
