package consent

// PresentationState tracks what the consent UI should show. Banner and modal
// are independent surfaces: the modal can overlay any state, and neither
// implies the other.
type PresentationState struct {
	BannerVisible bool `json:"bannerVisible"`
	ModalVisible  bool `json:"modalVisible"`
}

// InitialState is the page-load state: everything hidden until
// initialization decides otherwise.
func InitialState() PresentationState {
	return PresentationState{}
}

// AfterInit derives visibility once initialization completes (the async
// delay that lets the tag-manager script finish loading). The banner shows
// only for visitors in a consent-requiring region with no stored history.
func (s PresentationState) AfterInit(consentRequired, hasHistory bool) PresentationState {
	s.BannerVisible = consentRequired && !hasHistory
	return s
}

// OpenModal shows the preferences modal. It never implicitly dismisses the
// banner; only an explicit decision does that.
func (s PresentationState) OpenModal() PresentationState {
	s.ModalVisible = true
	return s
}

// CloseModal hides the modal. Closing is an explicit action distinct from
// making a decision and leaves the banner untouched.
func (s PresentationState) CloseModal() PresentationState {
	s.ModalVisible = false
	return s
}

// AfterDecision applies an explicit accept/reject/save action: the banner is
// dismissed for good this session, but an independently opened modal stays
// open until its own close action.
func (s PresentationState) AfterDecision() PresentationState {
	s.BannerVisible = false
	return s
}
