package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"

	// IntentClassificationPrompt expects the tool catalog as its only argument.
	IntentClassificationPrompt = `You route messages for a political research assistant.
Pick exactly one tool for the user's latest message.

AVAILABLE TOOLS:
%s

RULES:
- Strip instructions like "write a press release about X" down to the topic X for "query".
- Split multi-part requests into at most 4 "sub_queries", otherwise return [].
- "sub_intent" is only used with "direct": summarize, translate, compare, explain, brainstorm, general.
- "agent" is only used with "content_creation".
- Person names stay inside "query".

Respond with JSON only:
{"intent": "...", "sub_intent": "...", "agent": "...", "query": "...", "sub_queries": [], "confidence": 0.0}`

	FilterExtractionPrompt = `Extract search filters from the user's message.
content_type is one of: press_release, speech, motion, bill, inquiry, transcript, example.
region is a country or state name as written by the user.
Dates use the format YYYY-MM-DD.
Use null for anything not explicitly stated. Do not extract person names.

Respond with JSON only:
{"content_type": null, "region": null, "date_from": null, "date_to": null}`

	// RerankPrompt expects the query and the numbered candidate list.
	RerankPrompt = `Rate how useful each document is for answering the query.
Score from 1 (irrelevant) to 5 (directly answers it). Use integers only.

QUERY: %s

DOCUMENTS:
%s

Respond with JSON only:
{"scores": [{"index": 0, "score": 5}]}`

	// QueryExpansionPrompt expects the query and the number of variants.
	QueryExpansionPrompt = `Propose alternative web search queries for: %s
Return at most %d short keyword variants in the same language, different wording, same meaning.

Respond with a JSON array of strings only.`

	CompactionSummaryPrompt = `Summarize the conversation below for a colleague who will continue it.
Keep decisions, facts, named entities, open questions and the user's preferences.
Do not invent anything. Write in the language of the conversation. Plain prose, no lists.`

	AssistantBasePrompt = `You are a research assistant for political communication in German-speaking countries.
Answer precisely, cite sources as [N] when evidence is provided, and say so when the evidence does not cover the question.`

	EvidenceHeader = "## Retrieved evidence"

	CompactionSummaryHeader = "## Earlier conversation (summary)"
)
