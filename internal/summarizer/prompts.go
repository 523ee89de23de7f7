package summarizer

type prompt struct {
	system string
	user   string
}

const reporterSystem = `You are a news reporter AI. You read raw web page text, which often includes navigation, ads and unrelated promotions, and you report only what the story is about.`

const structuredSuffix = `

Output JSON only, no other text:
{
  "summary": "the summary",
  "keywords": ["3 to 5 short keywords"]
}`

func directPrompt(body string) prompt {
	return prompt{
		system: reporterSystem,
		user: "Given the news body text: " + body + "\n\n" +
			"The text may include irrelevant information. Identify the key arguments and the article's conclusion, " +
			"then write a succinct summary that captures its news value, leaving out unnecessary details.",
	}
}

func mapInstruction(chunk string) string {
	return "This is a segment of the text from a news page: '" + chunk + "'\n\n" +
		"It may contain irrelevant information such as ads or promotion of other content. " +
		"Extract and summarize the key information in this segment that relates to the news story."
}

func reducePrompt(digest string) prompt {
	return prompt{
		system: reporterSystem,
		user: "Given the key information extracted from the news body text:\n" + digest + "\n\n" +
			"Focus on the core arguments and the conclusions drawn in the article. " +
			"Write a brief and meaningful summary that captures its relevance and news-worthiness.",
	}
}
