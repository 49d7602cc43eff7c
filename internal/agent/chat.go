package agent

import (
	"regexp"
	"strings"
)

type cannedReply struct {
	phrase string
	reply  string
}

// cannedReplies are checked in order against whole words of the message.
var cannedReplies = []cannedReply{
	{"hello", "Hi! I'm here to help you decide what to eat. What are you in the mood for?"},
	{"hi", "Hello! Ready to find your next meal? Just tell me what you're craving!"},
	{"hey", "Hey there! Let's figure out what delicious food you should have today!"},
	{"thanks", "You're welcome! Happy to help with your food decisions!"},
	{"thank you", "You're welcome! Hope you enjoy your meal!"},
}

var nonWordRE = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// chatReply answers small talk without calling the model.
func chatReply(message string) string {
	padded := " " + strings.TrimSpace(nonWordRE.ReplaceAllString(strings.ToLower(message), " ")) + " "
	for _, c := range cannedReplies {
		if strings.Contains(padded, " "+c.phrase+" ") {
			return c.reply
		}
	}
	return askAnything
}
