package hearingprotection

// ProtectionRating grades the protected exposure level per EN 458.
type ProtectionRating string

const (
	RatingInsufficient   ProtectionRating = "insufficient"
	RatingAcceptable     ProtectionRating = "acceptable"
	RatingGood           ProtectionRating = "good"
	RatingOverprotection ProtectionRating = "overprotection"
)

// Rate maps a protected level in dB(A) onto the EN 458 assessment bands.
// A level equal to a boundary falls into the worse band.
func Rate(protectedLevel float64) ProtectionRating {
	switch {
	case protectedLevel >= 80:
		return RatingInsufficient
	case protectedLevel >= 75:
		return RatingAcceptable
	case protectedLevel >= 70:
		return RatingGood
	default:
		return RatingOverprotection
	}
}
