package devstub

import "math/rand"

// challengeWords is the pool a joined session draws its spoken word from.
var challengeWords = []string{
	"attendance", "present", "verification", "student", "class",
	"education", "learning", "knowledge", "university", "college",
	"engineering", "technology", "science", "mathematics", "computer",
	"artificial", "intelligence", "machine", "algorithm", "data",
	"programming", "software", "hardware", "network", "system",
}

func randomWord() string {
	return challengeWords[rand.Intn(len(challengeWords))]
}
