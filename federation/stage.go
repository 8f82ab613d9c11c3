package federation

// Stage is a step of one federated login.
type Stage uint8

const (
	StageInitiated Stage = iota
	StageRedirected
	StageCallbackReceived
	StageTokenExchanged
	StageProfileFetched
	StageSuccess
	StageProviderError
)

func (s Stage) String() string {
	switch s {
	case StageInitiated:
		return "initiated"
	case StageRedirected:
		return "redirected"
	case StageCallbackReceived:
		return "callback_received"
	case StageTokenExchanged:
		return "token_exchanged"
	case StageProfileFetched:
		return "profile_fetched"
	case StageSuccess:
		return "success"
	case StageProviderError:
		return "provider_error"
	default:
		return "unknown"
	}
}
