package services

import "fmt"

func coursePrompt(topic string) string {
	return fmt.Sprintf(`You are an expert course designer and educator.

Your task is to generate a high-quality course outline for the topic provided.
The audience is technical learners (students, developers, or engineers).

The course description should:
- Be intermediate to high-level
- Explain what the learner will gain and why the topic matters
- Include placeholders for images and videos where they add educational value:
   - __image1__ for the 1st image, __image2__ for the 2nd image
   - __ytvid1__ for the 1st YouTube video, __ytvid2__ for the 2nd YouTube video

MEDIA QUERY RULES:
- Do not generate URLs or links yourself
- Provide SEARCH QUERIES that will be used to find real content
- Image queries describe visual content: diagrams, infographics, screenshots
- Video queries describe educational content: tutorials, explanations, demonstrations

Generate a JSON object with the following structure:

{
  "title": "Concise, professional course title derived from the topic",
  "description": "A well-written introduction with placeholders inline where media fits, e.g. 'We begin with the core architecture __image1__, followed by real-world applications __ytvid1__.'",
  "image_queries": {"1": "specific image search query", "2": "another image search query"},
  "ytvid_queries": {"1": "specific YouTube search query", "2": "optional second video query"},
  "sections": ["Section titles from fundamentals to real-world usage"]
}

SECTION DESIGN RULES:
- Top-down: start with fundamentals and context, progress toward applied understanding
- End with real-world usage, best practices, or system-level thinking
- Avoid overly granular or implementation-specific titles

STRICT RULES:
1. Output strictly valid JSON (no markdown, no explanations).
2. Only include placeholders if you provide corresponding queries.
3. Do not include empty keys.
4. The description should be at least 300 words long.

Generate the JSON for this course topic:
%q
`, topic)
}

func sectionPrompt(sectionTitle, courseTitle string) string {
	return fmt.Sprintf(`You are an expert course author with a lot of experience creating technical courses.
Generate the content of ONE section of a technical course.
Place the placeholders below in the content where media, headings or MCQs should appear.
Allowed placeholders:
  __image1__, __image2__
  __ytvid1__, __ytvid2__
  __h1_1__, __h1_2__
  __h2_1__, __h2_2__
  __mcq1__, __mcq2__
Do not generate URLs or image/video links. Use placeholders only.

Return valid JSON in this structure:

{
  "text": "Long-form educational text. Headings appear only via placeholders, e.g. __h1_1__ Explanation... __image1__ More... __h2_1__ __ytvid1__ __mcq1__",
  "image_queries": {"1": "image search query", "2": "optional second image query"},
  "ytvid_queries": {"1": "YouTube search query", "2": "optional second video query"},
  "headings": {
    "h1": {"1": "Main conceptual heading", "2": "Another major concept"},
    "h2": {"1": "Subheading for first concept", "2": "Subheading for second concept"}
  },
  "mcqs": [
    {"question": "Clear test question", "options": ["A", "B", "C", "D"], "answer": "Correct option"}
  ]
}

The text should be at least 500 words and relevant to the section and course titles.
Provide at least 3 MCQs for intermediate to advanced learners.
Provide at least 2 image queries and 2 YouTube video queries, and use their placeholders in the text.
Use the heading placeholders in the text.
Course Title: %q
Section Title: %q

Generate ONLY the JSON. No markdown, no extra text.
`, courseTitle, sectionTitle)
}
