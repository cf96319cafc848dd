package domain

import (
	"strings"
	"time"
)

// Normalize converts a raw stored record into an InboxItem.
// It never fails: every missing or malformed field gets a default.
func Normalize(id string, data map[string]any, collection Collection) InboxItem {
	if data == nil {
		data = map[string]any{}
	}

	item := InboxItem{
		ID:       id,
		FamilyID: firstString(data["familyId"], data["family_id"]),
		Source:   sourceFor(collection, data),
		Status:   ParseStatus(stringOf(data["status"])),
		Archived: boolOf(data["archived"]),
		Error:    stringOf(data["error"]),
	}
	item.ReceivedAt = receivedAt(collection, data)
	item.Content = contentFor(collection, data)

	analysis := mapOf(data["aiAnalysis"])
	item.AIAnalysis = parseAnalysis(analysis)

	item.Summary = stringOf(data["summary"])
	if item.Summary == "" && item.AIAnalysis != nil {
		item.Summary = item.AIAnalysis.Summary
	}

	item.SuggestedActions = NormalizeActions(data["suggestedActions"])
	if len(item.SuggestedActions) == 0 && analysis != nil {
		item.SuggestedActions = NormalizeActions(analysis["suggestedActions"])
	}
	item.AllieActions = NormalizeActions(data["allieActions"])

	if v, ok := data["attemptedAt"]; ok && v != nil {
		t := NormalizeTimestamp(v)
		item.AttemptedAt = &t
	}
	return item
}

func sourceFor(collection Collection, data map[string]any) Source {
	switch collection {
	case CollectionDocuments:
		return SourceDocument
	case CollectionEmails:
		return SourceEmail
	}
	if strings.EqualFold(stringOf(data["type"]), "mms") || boolOf(data["hasMedia"]) {
		return SourceMMS
	}
	if len(stringsOf(data["mediaUrls"])) > 0 {
		return SourceMMS
	}
	if n, ok := numberOf(data["numMedia"]); ok && n > 0 {
		return SourceMMS
	}
	return SourceSMS
}

func receivedAt(collection Collection, data map[string]any) time.Time {
	var keys []string
	switch collection {
	case CollectionDocuments:
		keys = []string{"uploadedAt", "createdAt", "receivedAt"}
	case CollectionEmails:
		keys = []string{"receivedAt", "date", "createdAt"}
	default:
		keys = []string{"receivedAt", "timestamp", "createdAt"}
	}
	for _, k := range keys {
		if v, ok := data[k]; ok && v != nil {
			if t := NormalizeTimestamp(v); !t.Equal(Epoch) {
				return t
			}
		}
	}
	return Epoch
}

func contentFor(collection Collection, data map[string]any) Content {
	switch collection {
	case CollectionDocuments:
		return Content{
			Subject:       firstString(data["title"], data["fileName"]),
			FileName:      firstString(data["fileName"], data["name"], data["title"]),
			FileType:      firstString(data["fileType"], data["mimeType"], data["contentType"]),
			FileURL:       firstString(data["fileUrl"], data["downloadURL"], data["url"]),
			Category:      stringOf(data["category"]),
			ExtractedText: firstString(data["extractedText"], data["ocrText"], data["text"]),
		}
	case CollectionEmails:
		content := mapOf(data["content"])
		return Content{
			Subject: firstString(data["subject"], content["subject"]),
			Body:    firstString(data["body"], data["text"], content["text"], content["body"], data["snippet"]),
			From:    firstString(data["from"], content["from"]),
			To:      firstString(data["to"], content["to"]),
		}
	default:
		media := stringsOf(data["mediaUrls"])
		if len(media) == 0 {
			media = stringsOf(data["media"])
		}
		return Content{
			Body:      firstString(data["body"], data["text"], data["message"]),
			From:      firstString(data["from"], data["phoneNumber"]),
			To:        stringOf(data["to"]),
			MediaURLs: media,
		}
	}
}

func parseAnalysis(m map[string]any) *AIAnalysis {
	if m == nil {
		return nil
	}
	a := &AIAnalysis{
		Summary:  stringOf(m["summary"]),
		Category: stringOf(m["category"]),
		Tags:     stringsOf(m["tags"]),
	}
	if list, ok := m["contacts"].([]any); ok {
		for _, e := range list {
			c := mapOf(e)
			if c == nil {
				continue
			}
			contact := ContactInfo{
				Name:     stringOf(c["name"]),
				Phone:    stringOf(c["phone"]),
				Email:    stringOf(c["email"]),
				Role:     stringOf(c["role"]),
				Category: stringOf(c["category"]),
			}
			if contact.Name == "" && contact.Phone == "" && contact.Email == "" {
				continue
			}
			a.Contacts = append(a.Contacts, contact)
		}
	}
	if info := mapOf(m["extractedInfo"]); info != nil {
		a.ExtractedInfo = ExtractedInfo{
			Dates:         stringsOf(info["dates"]),
			People:        stringsOf(info["people"]),
			Organizations: stringsOf(info["organizations"]),
			Locations:     stringsOf(info["locations"]),
			KeyFacts:      stringsOf(info["keyFacts"]),
			ActionItems:   stringsOf(info["actionItems"]),
		}
	}
	if a.IsEmpty() {
		return nil
	}
	return a
}

// ParseAnalysis decodes an analysis object as produced by the classifier.
func ParseAnalysis(m map[string]any) *AIAnalysis {
	return parseAnalysis(m)
}

// AnalysisToMap encodes an analysis for storage. A nil analysis encodes as nil.
func AnalysisToMap(a *AIAnalysis) map[string]any {
	if a == nil {
		return nil
	}
	contacts := make([]any, 0, len(a.Contacts))
	for _, c := range a.Contacts {
		contacts = append(contacts, map[string]any{
			"name":     c.Name,
			"phone":    c.Phone,
			"email":    c.Email,
			"role":     c.Role,
			"category": c.Category,
		})
	}
	return map[string]any{
		"summary":  a.Summary,
		"category": a.Category,
		"tags":     toAnyList(a.Tags),
		"contacts": contacts,
		"extractedInfo": map[string]any{
			"dates":         toAnyList(a.ExtractedInfo.Dates),
			"people":        toAnyList(a.ExtractedInfo.People),
			"organizations": toAnyList(a.ExtractedInfo.Organizations),
			"locations":     toAnyList(a.ExtractedInfo.Locations),
			"keyFacts":      toAnyList(a.ExtractedInfo.KeyFacts),
			"actionItems":   toAnyList(a.ExtractedInfo.ActionItems),
		},
	}
}
