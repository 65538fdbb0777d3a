package nlg

// Domain-independent surface forms. Slot templates see .Slot and .Value.
var systemCommon = map[string][]string{
	"ask_repeat": {
		"Can you please repeat that?",
		"Sorry, I didn't catch that. Could you say it again?",
		"What did you say?",
	},
	"ask_rephrase": {
		"Can you please rephrase that?",
		"Could you say that in another way?",
	},
	"clarify": {
		"Sorry, I don't understand.",
		"I didn't get what you mean.",
	},
	"goodbye": {
		"Goodbye.",
		"Thank you for using the system. Bye!",
		"See you next time.",
	},
	"explicit_confirm": {
		"Do you mean {{.Value}}?",
		"Did you say {{.Value}}?",
		"{{.Value}}, is that right?",
	},
	"implicit_confirm": {
		"I believe you said {{.Value}}.",
		"{{.Value}}, got it.",
	},
	"explicit_confirm.dont_care": {
		"So you don't care about the {{.Slot}}, right?",
		"I'll search without a {{.Slot}} preference, okay?",
	},
	"implicit_confirm.dont_care": {
		"Okay.",
		"Got it.",
	},
	"need": {
		"How can I help you?",
		"What can I do for you?",
	},
	"happy": {
		"Is there anything else?",
		"Feel free to ask me anything else.",
		"Can I help you with anything else?",
	},
	"yes": {"Yes,"},
	"no":  {"No,"},
}

var userCommon = map[string][]string{
	"goodbye":      {"Thank you.", "Bye.", "Thanks, goodbye."},
	"confirm":      {"Yes.", "Right.", "That's correct.", "Yeah.", "Ok."},
	"disconfirm":   {"No.", "That's wrong.", "Not really.", "Nope."},
	"satisfy":      {"That's all.", "Thank you, that's enough.", "I'm all set."},
	"more_request": {"One more thing.", "I have another question.", "Also,"},
	"new_search":   {"I want to search for something else.", "New search.", "Let's try different criteria."},
	"chat": {
		"You are so smart.",
		"It's cold today.",
		"What's your name?",
		"Blah blah.",
		"I just finished work.",
	},
	"dont_care":  {"I don't care.", "Anything is fine."},
	"correction": {"Oh no,", "Uhm sorry,", "Oh sorry,"},
}
