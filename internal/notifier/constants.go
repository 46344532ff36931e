package notifier

// Discord formatting constants
const (
	DiscordUsername   = "userprobe"
	FoundEmbedColor   = 0x2ECC71
	NoMatchEmbedColor = 0xE67E22
	CancelEmbedColor  = 0x95A5A6

	footerText          = "userprobe username search"
	maxMatchesInMessage = 100
	// Discord caps a whole embed at 6000 characters
	maxMatchFields = 4
)
