package provider

import "fmt"

// System prompt for the understanding pass: read reduced HTML, produce
// markdown the extraction pass can work from.
const understandSystemPrompt = `You are a web page analyzer. Read the HTML below and produce a clean, structured markdown representation of the page content.

Include:
- All visible text content, preserving the page hierarchy
- All links as [text](url) markdown — use absolute URLs
- ALL image URLs from ANY source: <img> src/data-src/srcset, style="background-image: url(...)", data attributes, picture/source tags. Format each as ![image](url)
- Do NOT include navigation menus, footers, cookie banners, or boilerplate

Current page URL (for resolving relative URLs): %s

Output clean markdown text. No JSON. No code fences.`

// System prompt for the extraction pass: follow the user's instructions and
// classify discovered links into pagination vs. detail.
const extractSystemPrompt = `You are an intelligent web scraping assistant. The user will give you a detailed prompt describing what to scrape and how to navigate the site. Follow their instructions carefully.

For each page you analyze, return:

1. "data": Extract items matching the user's request. Each item is a JSON object.

2. "next_urls": Pagination links ONLY (next page, page 2, etc.). These are processed immediately. All URLs must be absolute.

3. "detail_urls": URLs to individual item/detail pages that need deeper scraping. These are processed AFTER all pagination is done. All URLs must be absolute.

4. "summary": Brief description of what was found.

Rules:
- Only extract data actually present on the page. Do not invent data.
- Convert relative URLs to absolute using the current page URL.
- Do not include the current page URL in next_urls or detail_urls.
- Pagination links go in "next_urls". Detail/item page links go in "detail_urls".

Current page URL: %s

Return ONLY valid JSON: {"data": [...], "next_urls": [...], "detail_urls": [...], "summary": "..."}`

func extractMessages(content string, userPrompt string, pageURL string) (system string, user string) {
	system = fmt.Sprintf(extractSystemPrompt, pageURL)
	user = fmt.Sprintf("%s\n\n---PAGE CONTENT---\n%s\n---END PAGE CONTENT---", userPrompt, content)
	return system, user
}

func understandMessages(content string, pageURL string) (system string, user string) {
	system = fmt.Sprintf(understandSystemPrompt, pageURL)
	user = fmt.Sprintf("---HTML---\n%s\n---END HTML---", content)
	return system, user
}
