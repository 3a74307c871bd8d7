package classifier

var stopWords = toSet(
	"a", "about", "am", "an", "and", "any", "are", "as", "at", "be", "been", "but", "by",
	"can", "cannot", "could", "did", "do", "does", "for", "from", "had", "has", "have",
	"i", "if", "in", "into", "is", "it", "its", "keeps", "me", "my", "no", "not", "of",
	"on", "or", "our", "please", "so", "some", "than", "that", "the", "their", "them",
	"then", "there", "this", "to", "too", "very", "was", "we", "were", "what", "when",
	"which", "while", "who", "why", "will", "with", "won", "would", "you", "your",
)

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func label(category string, texts ...string) []Sample {
	samples := make([]Sample, len(texts))
	for i, text := range texts {
		samples[i] = Sample{Text: text, Category: category}
	}
	return samples
}

var trainingCorpus = concat(
	label(CategoryHardware,
		"laptop screen is flickering", "keyboard button is broken", "mouse not working",
		"need new charger", "laptop battery not charging", "screen cracked",
		"keyboard keys stuck", "trackpad not responding", "laptop overheating",
		"hard drive making noise", "USB port not working", "headphones broken",
		"monitor display issue", "printer not printing", "scanner not working",
		"laptop fan loud", "power button not working", "webcam not working",
	),
	label(CategorySoftware,
		"cannot login to email", "software keeps crashing", "update windows error",
		"blue screen of death", "application not opening", "program freezing",
		"windows update failed", "software installation error", "antivirus blocking",
		"excel not responding", "word document corrupted", "outlook sync issue",
		"browser slow", "application error", "software compatibility issue",
		"windows activation problem", "driver update needed", "program won't start",
	),
	label(CategoryNetwork,
		"wifi is slow", "cannot connect to printer", "vpn connection failed",
		"internet not working", "cannot access shared drive", "email server down",
		"network connection lost", "wifi password reset", "ethernet cable issue",
		"cannot connect to server", "remote desktop not working", "network printer offline",
		"slow internet speed", "dns resolution failed", "firewall blocking",
		"cannot access website", "network timeout", "connection dropped",
	),
	label(CategoryAccount,
		"reset my password", "account locked", "cannot login",
		"password expired", "account access denied", "user permissions issue",
		"forgot password", "account disabled", "login credentials invalid",
		"need account access", "account suspended", "password reset required",
		"cannot access account", "account not found", "authentication failed",
		"user account issue", "login problem", "account security question",
	),
	label(CategoryOther,
		"general inquiry", "need help", "question about system",
		"training request", "documentation needed", "policy question",
	),
)

func concat(groups ...[]Sample) []Sample {
	var all []Sample
	for _, g := range groups {
		all = append(all, g...)
	}
	return all
}
