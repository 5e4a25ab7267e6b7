package mail

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/theLastOfCats/mylibrary-server/internal/model"
	"github.com/theLastOfCats/mylibrary-server/internal/templates"
)

// Notifier tells wishlist owners about reservations.
type Notifier struct {
	Sender    MailSender
	Templates *templates.Manager
	BaseURL   string
	Logger    *slog.Logger
}

// BookReserved mails owner that name reserved book. Owners without an
// email address are skipped. Delivery failures are returned for the
// caller to log; they never undo the reservation.
func (n *Notifier) BookReserved(owner *model.User, book *model.Book, name string) error {
	if n == nil || n.Sender == nil || owner.Email == nil || *owner.Email == "" {
		return nil
	}

	wishlistURL := ""
	if n.BaseURL != "" {
		wishlistURL = strings.TrimRight(n.BaseURL, "/") + "/share/" + owner.WishlistLink
	}

	html, err := n.Templates.Render(templates.BookReservedMail, map[string]any{
		"ReservedBy":  name,
		"Title":       book.Title,
		"Authors":     []string(book.Authors),
		"WishlistURL": wishlistURL,
	})
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("%q was reserved from your wishlist", book.Title)
	text := fmt.Sprintf("%s has reserved %q from your wishlist.", name, book.Title)
	if err := n.Sender.Send(*owner.Email, subject, text, html); err != nil {
		return err
	}

	if n.Logger != nil {
		n.Logger.Debug("reservation mail sent", "book_id", book.ID, "owner", owner.UserID)
	}
	return nil
}
