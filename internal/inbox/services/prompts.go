package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/allie/internal/inbox/domain"
)

const systemPrompt = "You are Allie, an assistant that organizes a busy family's paperwork and messages. " +
	"Reply with a single JSON object and nothing else."

const documentSchema = `{
  "summary": "two or three sentences",
  "category": "one of: %s",
  "tags": ["short", "labels"],
  "dates": [{"date": "YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS", "description": "what happens"}],
  "people": ["names"],
  "organizations": ["names"],
  "keyFacts": ["facts worth remembering"],
  "actionItems": [{"task": "what to do", "priority": "low|medium|high", "dueDate": "YYYY-MM-DD"}],
  "suggestedContacts": [{"name": "", "phone": "", "email": "", "role": "", "category": ""}],
  "suggestedEvents": [{"title": "", "description": "", "startDate": "YYYY-MM-DDTHH:MM:SS", "endDate": "", "location": ""}]
}`

const messageSchema = `{
  "summary": "one or two sentences",
  "category": "one of: %s",
  "tags": ["short", "labels"],
  "contacts": [{"name": "", "phone": "", "email": "", "role": "", "category": ""}],
  "extractedInfo": {
    "dates": [], "people": [], "organizations": [], "locations": [], "keyFacts": [], "actionItems": []
  },
  "suggestedActions": [
    {"type": "calendar|task|contact", "title": "", "description": "", "priority": "low|medium|high",
     "data": {"startDate": "", "endDate": "", "location": "", "dueDate": "", "assigneeNames": [],
              "name": "", "phone": "", "email": "", "category": "", "role": ""}}
  ]
}`

func categoryList() string {
	names := make([]string, len(domain.Categories))
	for i, c := range domain.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func dateLine(now time.Time) string {
	return fmt.Sprintf("Today is %s. Resolve relative dates against it and use the current year when a year is missing.",
		now.Format("Monday, January 2, 2006"))
}

func documentTextPrompt(c domain.Content, now time.Time) string {
	var b strings.Builder
	b.WriteString("Analyze this family document.\n")
	writeDocumentHeader(&b, c)
	b.WriteString("\nExtracted text:\n")
	b.WriteString(strings.TrimSpace(c.ExtractedText))
	b.WriteString("\n\n")
	b.WriteString(dateLine(now))
	b.WriteString("\nReturn JSON with exactly this shape:\n")
	fmt.Fprintf(&b, documentSchema, categoryList())
	return b.String()
}

func documentVisionPrompt(c domain.Content, now time.Time) string {
	var b strings.Builder
	b.WriteString("The attached image is a family document. Read it carefully and analyze it.\n")
	writeDocumentHeader(&b, c)
	b.WriteString("\n")
	b.WriteString(dateLine(now))
	b.WriteString("\nReturn JSON with exactly this shape:\n")
	fmt.Fprintf(&b, documentSchema, categoryList())
	return b.String()
}

// documentInferencePrompt handles scans with little or no readable text.
func documentInferencePrompt(c domain.Content, now time.Time) string {
	var b strings.Builder
	b.WriteString("A family document was uploaded but almost no text could be read from it, ")
	b.WriteString("probably because it is a scan or a photo. ")
	b.WriteString("Infer its most likely content from the file name, the category and any partial text. ")
	b.WriteString("Say in the summary that the analysis is inferred, and leave lists empty rather than inventing details.\n")
	writeDocumentHeader(&b, c)
	if t := strings.TrimSpace(c.ExtractedText); t != "" {
		b.WriteString("Partial text: ")
		b.WriteString(t)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(dateLine(now))
	b.WriteString("\nReturn JSON with exactly this shape:\n")
	fmt.Fprintf(&b, documentSchema, categoryList())
	return b.String()
}

func writeDocumentHeader(b *strings.Builder, c domain.Content) {
	if c.FileName != "" {
		fmt.Fprintf(b, "File name: %s\n", c.FileName)
	}
	if c.FileType != "" {
		fmt.Fprintf(b, "File type: %s\n", c.FileType)
	}
	if c.Category != "" {
		fmt.Fprintf(b, "Uploaded under category: %s\n", c.Category)
	}
}

func messagePrompt(item domain.InboxItem, now time.Time) string {
	c := item.Content
	var b strings.Builder
	switch item.Source {
	case domain.SourceEmail:
		b.WriteString("Analyze this email sent to the family.\n")
	case domain.SourceMMS:
		b.WriteString("Analyze this picture message sent to the family.\n")
	default:
		b.WriteString("Analyze this text message sent to the family.\n")
	}
	if c.From != "" {
		fmt.Fprintf(&b, "From: %s\n", c.From)
	}
	if c.To != "" {
		fmt.Fprintf(&b, "To: %s\n", c.To)
	}
	if c.Subject != "" {
		fmt.Fprintf(&b, "Subject: %s\n", c.Subject)
	}
	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(c.Body))
	if t := strings.TrimSpace(c.ExtractedText); t != "" {
		b.WriteString("\n\nText from attachments:\n")
		b.WriteString(t)
	}
	b.WriteString("\n\n")
	b.WriteString(dateLine(now))
	b.WriteString("\nSuggest only actions the family would plausibly take. ")
	b.WriteString("Never suggest saving the sender as a contact using their own number.\n")
	b.WriteString("Return JSON with exactly this shape:\n")
	fmt.Fprintf(&b, messageSchema, categoryList())
	return b.String()
}
