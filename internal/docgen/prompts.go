package docgen

import (
	"fmt"
	"strings"
)

// languageNames maps profile ids to names used in prompts.
var languageNames = map[string]string{
	"python":     "Python",
	"javascript": "JavaScript",
	"typescript": "TypeScript",
	"java":       "Java",
	"go":         "Go",
	"cpp":        "C++",
}

func languageName(id string) string {
	if n, ok := languageNames[id]; ok {
		return n
	}
	if id == "" {
		return "source"
	}
	return id
}

// promptFragmentStyle describes the requested layout. Non-Python languages get the same sections, adapted to their comment conventions by the formatter.
func promptFragmentStyle(style Style) string {
	var b strings.Builder
	b.WriteString("## Style\n")
	switch style {
	case StyleNumpy:
		b.WriteString("- Use numpy-style sections: a one-line summary, an optional extended description, then `Parameters`, `Returns`, and `Raises` sections, each underlined with dashes.\n")
	case StyleRST:
		b.WriteString("- Use reStructuredText field lists: a one-line summary, an optional extended description, then `:param name:`, `:returns:`, and `:raises Type:` fields.\n")
	default:
		b.WriteString("- Use Google-style sections: a one-line summary, an optional extended description, then `Args:`, `Returns:`, and `Raises:` sections with indented entries.\n")
	}
	b.WriteString("- The summary line is a full sentence with capitalization and a period.\n")
	b.WriteString("- Omit sections that do not apply (ex: no `Args` section for a function without parameters).\n")
	b.WriteString("- Prefer the ASCII character set.\n")
	b.WriteString("\n")
	return b.String()
}

// promptGenerate returns the user prompt asking for documentation of snippet.
func promptGenerate(snippet Snippet, style Style) string {
	lang := languageName(snippet.Language)

	var b strings.Builder
	fmt.Fprintf(&b, "Generate professional, %s-style documentation for the following %s code.\n\n", style, lang)
	b.WriteString(promptFragmentStyle(style))
	b.WriteString("## Output\n")
	b.WriteString("- Return only the raw content of the documentation.\n")
	b.WriteString("- Do not include comment markers (no triple quotes, no `/**`, no `*/`, no leading `//` or ` * `).\n")
	b.WriteString("- Do not repeat the code and do not wrap the answer in a fenced code block.\n\n")
	b.WriteString("## Code\n")
	fmt.Fprintf(&b, "```%s\n%s\n```\n", strings.ToLower(lang), strings.TrimRight(snippet.Code, "\n"))
	return b.String()
}

// promptEvaluate returns the user prompt asking whether existing is good documentation for snippet. The expected answer is a single word: YES or NO.
func promptEvaluate(snippet Snippet, existing string) string {
	lang := languageName(snippet.Language)

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the following %s code and its documentation.\n", lang)
	b.WriteString("Is the documentation high-quality, descriptive, and helpful for the code?\n")
	b.WriteString("Good documentation explains what the code does, its arguments (if any), and what it returns. Bad documentation is too generic or irrelevant.\n\n")
	b.WriteString("Code:\n")
	fmt.Fprintf(&b, "```%s\n%s\n```\n\n", strings.ToLower(lang), strings.TrimRight(snippet.Code, "\n"))
	b.WriteString("Documentation:\n")
	fmt.Fprintf(&b, "```\n%s\n```\n\n", strings.TrimRight(existing, "\n"))
	b.WriteString("Answer with a single word: YES or NO.\n")
	return b.String()
}

const systemPrompt = "You are an expert programmer who writes clear, accurate API documentation. Follow the user's output instructions exactly."

// namingConventions describes each language's identifier convention for prompts.
var namingConventions = map[string]string{
	"python":     "snake_case",
	"javascript": "camelCase",
	"typescript": "camelCase",
	"java":       "camelCase",
	"go":         "mixedCaps (exported names start with an upper-case letter)",
	"cpp":        "the style already used in the code",
}

func namingConvention(id string) string {
	if c, ok := namingConventions[id]; ok {
		return c
	}
	return "the style already used in the code"
}

// promptEvaluateName returns the user prompt asking whether name is a good name in snippet. The expected answer is a single word: YES or NO.
func promptEvaluateName(snippet Snippet, name string, kind NameKind) string {
	lang := languageName(snippet.Language)

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the following %s code and the %s name `%s`.\n", lang, kind, name)
	fmt.Fprintf(&b, "Is the name high-quality, descriptive, and appropriate for what the %s holds or does?\n", kind)
	fmt.Fprintf(&b, "A good name is clear, concise, and follows %s conventions (%s). ", lang, namingConvention(snippet.Language))
	b.WriteString("A bad name is too short (like `d`), too generic (like `data` or `temp`), or does not match what the code is doing. ")
	b.WriteString("Conventional short names such as loop indices are fine.\n\n")
	b.WriteString("Code:\n")
	fmt.Fprintf(&b, "```%s\n%s\n```\n\n", strings.ToLower(lang), strings.TrimRight(snippet.Code, "\n"))
	b.WriteString("Answer with a single word: YES or NO.\n")
	return b.String()
}

// promptSuggestName returns the user prompt asking for a better name than name. The expected answer is the bare identifier.
func promptSuggestName(snippet Snippet, name string, kind NameKind) string {
	lang := languageName(snippet.Language)

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the following %s code. The %s `%s` has a poor name.\n", lang, kind, name)
	fmt.Fprintf(&b, "Suggest a better, more descriptive %s name based on how it is used. Follow %s conventions (%s) and do not use a reserved keyword ", kind, lang, namingConvention(snippet.Language))
	b.WriteString("or a name that already appears in the code.\n\n")
	b.WriteString("Code:\n")
	fmt.Fprintf(&b, "```%s\n%s\n```\n\n", strings.ToLower(lang), strings.TrimRight(snippet.Code, "\n"))
	b.WriteString("Return only the new name, and nothing else.\n")
	return b.String()
}
