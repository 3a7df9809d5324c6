package service

import (
	"time"

	"mynotes/internal/data/model"
)

// Sample data used whenever the datastore is unreachable or a table is empty.
// Calendar events deliberately have no seed.

func seedUsers() []model.User {
	return []model.User{{ID: "u1", Name: "Użytkownik", Role: "owner", Avatar: "U"}}
}

func seedNotes() []model.Note {
	return []model.Note{
		{
			ID:         "n1",
			Title:      "Pomysły na aplikację",
			Content:    "1. Notatnik głosowy\n2. Integracja z kalendarzem\n3. AI asystent",
			Category:   model.CategoryProjects,
			Tags:       []string{"app", "dev", "ideas"},
			CreatedAt:  mustTime("2026-01-10T12:00:00Z"),
			UpdatedAt:  mustTime("2026-01-10T12:00:00Z"),
			IsFavorite: true,
		},
		{
			ID:        "n2",
			Title:     "Przepis na ciasto",
			Content:   "Składniki: mąka, cukier, jajka, masło...",
			Category:  model.CategoryPersonal,
			Tags:      []string{"kuchnia", "przepisy"},
			CreatedAt: mustTime("2026-01-11T15:30:00Z"),
			UpdatedAt: mustTime("2026-01-11T15:30:00Z"),
		},
		{
			ID:        "n3",
			Title:     "Spotkanie z zespołem",
			Content:   "Omówienie sprintu, podział zadań.",
			Category:  model.CategoryWork,
			Tags:      []string{"spotkanie", "agile"},
			CreatedAt: mustTime("2026-01-12T09:00:00Z"),
			UpdatedAt: mustTime("2026-01-12T09:00:00Z"),
		},
	}
}

func seedTodos() []model.Todo {
	return []model.Todo{
		{
			ID:          "t1",
			Text:        "Zrobić zakupy",
			Description: "Mleko, chleb, jajka, warzywa.",
			Priority:    model.PriorityMedium,
			CreatedAt:   mustTime("2026-01-10T10:00:00Z"),
			DueDate:     "2026-01-12",
		},
		{
			ID:          "t2",
			Text:        "Napisać raport miesięczny",
			Description: "Podsumowanie wydatków i przychodów.",
			Completed:   true,
			Priority:    model.PriorityHigh,
			CreatedAt:   mustTime("2026-01-09T14:30:00Z"),
		},
		{
			ID:          "t3",
			Text:        "Umówić wizytę u dentysty",
			Description: "Kontrola roczna.",
			Priority:    model.PriorityLow,
			CreatedAt:   mustTime("2026-01-11T09:15:00Z"),
		},
	}
}

func seedAttachments() []model.Attachment {
	return []model.Attachment{}
}

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}
