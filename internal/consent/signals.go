package consent

// Signal names the external consent-mode keys pushed to the tag-manager
// receiver.
type Signal string

const (
	SignalAnalyticsStorage       Signal = "analytics_storage"
	SignalAdStorage              Signal = "ad_storage"
	SignalPersonalizationStorage Signal = "personalization_storage"
	SignalFunctionalityStorage   Signal = "functionality_storage"
	SignalSecurityStorage        Signal = "security_storage"
)

// SignalState is the grant/deny value of one signal.
type SignalState string

const (
	SignalGranted SignalState = "granted"
	SignalDenied  SignalState = "denied"
)

func grantWhen(ok bool) SignalState {
	if ok {
		return SignalGranted
	}
	return SignalDenied
}

// Signals collapses the tri-category decision into the five-key consent-mode
// map. Pure and total: functionality and security storage are always granted
// because the essential category is non-optional.
func Signals(d Decision) map[Signal]SignalState {
	return map[Signal]SignalState{
		SignalAnalyticsStorage:       grantWhen(d.Analytics),
		SignalAdStorage:              grantWhen(d.Marketing),
		SignalPersonalizationStorage: grantWhen(d.Marketing),
		SignalFunctionalityStorage:   SignalGranted,
		SignalSecurityStorage:        SignalGranted,
	}
}
