package service

import (
	"fmt"
	"strings"
	"time"

	"mynotes/internal/assistant/model"
)

// isoMillis mirrors the browser's Date.toISOString output.
const isoMillis = "2006-01-02T15:04:05.000Z"

const chatPromptTemplate = `
Jesteś inteligentnym asystentem w systemie notatek "MyNotes".
Twoim celem jest pomaganie użytkownikowi w zarządzaniu notatkami, dokumentami i zadaniami.

KONTEKST DANYCH (Podsumowanie):
- Notatki: %d (Ostatnie: %s)
- Załączniki: %d
- Zadania (oczekujące): %d
- Nadchodzące wydarzenia: %s
- Dzisiejsza data: %s

ZASADY:
1. Odpowiadaj krótko i konkretnie.
2. Jeśli użytkownik pyta o coś, czego nie ma w kontekście, powiedz o tym.
3. Bądź pomocny i uprzejmy.
4. Możesz prowadzić swobodną rozmowę (chit-chat), jeśli użytkownik nie pyta o dane.
5. Jeśli użytkownik chce DODAĆ WYDARZENIE do kalendarza, zwróć odpowiedź w formacie JSON (bez bloków kodu markdown):
{
  "action": "add_event",
  "event": {
    "title": "Tytuł wydarzenia",
    "start_time": "ISO string daty i godziny",
    "end_time": "ISO string daty i godziny (opcjonalnie, domyślnie +1h)",
    "description": "Opis (opcjonalnie)"
  },
  "response": "Tekst odpowiedzi dla użytkownika (np. Dodałem wydarzenie...)"
}
6. W pozostałych przypadkach zwracaj po prostu tekst odpowiedzi (zwykły string lub JSON z polem "response").

Użytkownik napisał: "%s"
`

// ChatSystemPrompt renders the assistant instruction with the data summary.
func ChatSystemPrompt(msg string, c model.ChatContext, now time.Time) string {
	return fmt.Sprintf(chatPromptTemplate,
		c.NotesCount, c.LatestNotes,
		c.AttachmentsCount,
		c.PendingTodosCount,
		c.NextEvents,
		now.UTC().Format(isoMillis),
		msg,
	)
}

const clientSystemPrompt = "Jesteś profesjonalnym asystentem głosowym w kancelarii prawnej. Twoje wypowiedzi są zwięzłe, konkretne i pomocne."

const clientPromptTemplate = `
Jesteś inteligentnym asystentem głosowym w kancelarii adwokackiej. Twoim zadaniem jest wygenerowanie naturalnej, mówionej wypowiedzi dla klienta, opierając się na historii notatek i statusie sprawy.

DANE KLIENTA:
Imię i nazwisko: %s
Email: %s
Telefon: %s
Kontekst AI (stałe instrukcje): %s

HISTORIA NOTATEK (od najnowszych):
%s

INSTRUKCJE DO GENEROWANIA ODPOWIEDZI:
1. Przeanalizuj ostatnie notatki, aby zrozumieć bieżącą sytuację (np. czy dokumenty dotarły, czy czekamy na sąd, czy jest wyznaczony termin).
2. Wygeneruj wypowiedź, którą asystent głosowy ma powiedzieć klientowi.
3. Jeśli w notatkach jest informacja, że "dokumenty zostały dostarczone" lub podobna, poinformuj klienta: "Potwierdzam, że otrzymaliśmy Pana/Pani dokumenty. Jesteśmy w trakcie ich analizy i wkrótce się skontaktujemy."
4. Jeśli w notatkach jest prośba o kontakt, powiedz o tym.
5. Styl ma być uprzejmy, profesjonalny, ale naturalny i konwersacyjny (nie jak e-mail).
6. Mów w pierwszej osobie liczby mnogiej ("my", "nasza kancelaria") lub jako asystent ("przekażę mecenasowi").
7. Nie dodawaj żadnych wstępów typu "Oto propozycja odpowiedzi:", tylko sam tekst do wypowiedzenia.
8. Absolutnie NIE dodawaj podpisu, imienia i nazwiska, stanowiska ani nazwy kancelarii na końcu wypowiedzi. Generuj wyłącznie treść wiadomości.

Twoja odpowiedź:
`

// ClientPrompt renders the voice-reply prompt for a law-office client.
func ClientPrompt(req model.GenerateRequest) string {
	c := req.Client
	contextNote := c.AIContextNote
	if contextNote == "" {
		contextNote = "Brak"
	}
	return fmt.Sprintf(clientPromptTemplate, c.FullName, c.Email, c.Phone, contextNote, notesText(req.Notes))
}

func notesText(notes []model.ClientNote) string {
	if len(notes) == 0 {
		return "Brak notatek."
	}
	lines := make([]string, len(notes))
	for i, n := range notes {
		lines[i] = fmt.Sprintf("- %s (Autor: %s, Data: %s)", n.Content, n.Author, n.Date)
	}
	return strings.Join(lines, "\n")
}
