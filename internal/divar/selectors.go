// Package divar pins down the single canonical view of the target
// site: entry routes and the selector set every flow drives against.
// The remote UI is an unstable dependency; when it changes, this file
// is the one place to fix.
package divar

const (
	// NewListingURL is the posting entry route. It doubles as the login
	// entry: unauthenticated visitors get the phone prompt here.
	NewListingURL = "https://divar.ir/new"

	// MyDivarURL is the account page, used for logout.
	MyDivarURL = "https://divar.ir/my-divar"
)

const (
	// Login screens
	PhoneInput   = `input[name="mobile"]`
	OTPInput     = `input[name="code"]`
	SubmitButton = `button.auth-actions__submit-button`

	// First posting screen: images, title, description
	ImagesInput      = `input[type="file"][name="Images"]`
	TitleInput       = `input[name="Title"]`
	DescriptionInput = `textarea[name="Description"]`

	// NextButton advances multi-screen forms; shared across screens.
	NextButton = `button[type="submit"]`

	// Category selection screen
	CategoryTitle = `h2:has-text("انتخاب دستهٔ آگهی")`
	CategoryItem  = `div[role="button"].rawButton-W5tTZw`

	// CategoryBlock is the category container some flows render inline
	// after the first "next" instead of a full selection screen.
	CategoryBlock = `#Category`

	// Price / attributes screen
	PriceInput = `input[name="price"]`

	// LocationUnsetButton is present while the listing location is
	// still in its "تعیین" (to be determined) state.
	LocationUnsetButton = `button.kt-action-field:has-text("تعیین")`

	// Contact preference toggles; not every category shows them.
	ContactChatToggle = `input[name="chat_enabled"]`
	ContactCallToggle = `input[name="phone_enabled"]`

	// FinalSubmitButton posts the listing.
	FinalSubmitButton = `button[type="submit"]:has-text("ثبت اطلاعات")`

	// LogoutButton on the account page.
	LogoutButton = `button.kt-fullwidth-link:has(p:has-text("خروج"))`
)
