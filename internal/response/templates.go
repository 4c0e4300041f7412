package response

// Template pools per kind. Placeholders use {name}; anything unfilled is
// stripped before the text leaves the service. Every kind keeps at least
// three variants so consecutive turns do not repeat.
var templatePools = map[Kind][]string{
	KindData: {
		"I found {count} {subject} matching your question.",
		"There are {count} {subject} for that request.",
		"Your search turned up {count} {subject}.",
		"Here's what I found: {count} {subject}.",
	},
	KindAction: {
		"Done. I {action}.",
		"All set. I {action}.",
		"I've {action} for you.",
	},
	KindError: {
		"Sorry, something went wrong: {message}. {suggestion}",
		"I ran into a problem: {message}. {suggestion}",
		"That didn't work: {message}. {suggestion}",
	},
	KindClarification: {
		"{question}",
		"I want to make sure I get this right: {question}",
		"Before I continue: {question}",
	},
	KindConfirmation: {
		"Just to confirm: {consequence}. Should I proceed?",
		"This will {consequence}. Do you want me to go ahead?",
		"Heads up: {consequence}. Confirm to continue.",
	},
	KindEmpty: {
		"No {subject} found for that request.",
		"No matching {subject} turned up for that question.",
		"There are no {subject} for that time period.",
	},
	KindSuccess: {
		"{message}",
		"Great. {message}",
		"{message} Anything else?",
	},
	KindSummary: {
		"Here's a summary: {points}.",
		"To recap: {points}.",
		"In short: {points}.",
	},
}
