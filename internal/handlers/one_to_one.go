package handlers

import (
	"net/mail"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"agendrr/internal/models"
)

// OneToOneHandler links meetings with a single colleague to a note named
// after them. Colleagues are recognized by first.last addresses on the
// user's own domain.
type OneToOneHandler struct {
	userFirstName string
	homeDomain    string
}

// NewOneToOneHandler creates a OneToOneHandler for the given user.
func NewOneToOneHandler(userFirstName, homeDomain string) *OneToOneHandler {
	return &OneToOneHandler{
		userFirstName: userFirstName,
		homeDomain:    homeDomain,
	}
}

func (h *OneToOneHandler) Name() string { return "one-to-one" }

func (h *OneToOneHandler) Handle(event models.Event) (string, bool) {
	if len(event.Attendees) != 1 {
		return "", false
	}

	first, full, ok := h.parseName(event.Attendees[0])
	if !ok {
		return "", false
	}
	return linkedEntry(event.StartTime, full, h.userFirstName+"/"+first), true
}

// parseName derives a title-cased first name and full name from a colleague's
// email address. External addresses are refused.
func (h *OneToOneHandler) parseName(email string) (first, full string, ok bool) {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return "", "", false
	}

	at := strings.LastIndex(addr.Address, "@")
	if at < 0 {
		return "", "", false
	}
	local, domain := addr.Address[:at], addr.Address[at+1:]
	if domain != h.homeDomain {
		return "", "", false
	}

	firstName, lastName, found := strings.Cut(local, ".")
	if !found {
		return "", "", false
	}

	// Further dots separate words of the last name: jane.van.doe is "Jane Van Doe".
	lastName = strings.ReplaceAll(lastName, ".", " ")

	title := cases.Title(language.Und)
	return title.String(firstName), title.String(firstName + " " + lastName), true
}
