package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"mesto/internal/middleware"
	"mesto/internal/models"
)

// Popup names a modal. At most one is open at a time.
type Popup int

const (
	PopupNone Popup = iota
	PopupEditProfile
	PopupEditAvatar
	PopupAddPlace
	PopupConfirmDelete
	PopupImagePreview
)

func (p Popup) String() string {
	switch p {
	case PopupEditProfile:
		return "edit-profile"
	case PopupEditAvatar:
		return "edit-avatar"
	case PopupAddPlace:
		return "add-place"
	case PopupConfirmDelete:
		return "confirm-delete"
	case PopupImagePreview:
		return "image-preview"
	default:
		return "none"
	}
}

// ErrNoPendingCard is returned by ConfirmDelete when no card was chosen.
var ErrNoPendingCard = errors.New("no card pending deletion")

// Tooltip is the result banner shown after registration.
type Tooltip struct {
	Open    bool
	Success bool
}

// State is a copy of the app state at one moment.
type State struct {
	LoggedIn     bool
	Email        string
	CurrentUser  models.User
	Cards        []models.Card
	Popup        Popup
	SelectedCard *models.Card
	Tooltip      Tooltip
}

// App holds one session's state and keeps it in step with the server.
type App struct {
	api    *API
	logger *slog.Logger

	mu           sync.Mutex
	loggedIn     bool
	email        string
	currentUser  models.User
	cards        []models.Card
	popup        Popup
	selectedCard *models.Card
	tooltip      Tooltip
}

// NewApp returns a logged-out app backed by api.
func NewApp(api *API) *App {
	return &App{api: api, logger: middleware.Logger, cards: []models.Card{}}
}

// State returns a snapshot safe to read without the lock.
func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()

	cards := make([]models.Card, len(a.cards))
	copy(cards, a.cards)
	var selected *models.Card
	if a.selectedCard != nil {
		c := *a.selectedCard
		selected = &c
	}
	return State{
		LoggedIn:     a.loggedIn,
		Email:        a.email,
		CurrentUser:  a.currentUser,
		Cards:        cards,
		Popup:        a.popup,
		SelectedCard: selected,
		Tooltip:      a.tooltip,
	}
}

func (a *App) open(p Popup, card *models.Card) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.popup = p
	a.selectedCard = card
}

func (a *App) OpenEditProfile() { a.open(PopupEditProfile, nil) }
func (a *App) OpenEditAvatar()  { a.open(PopupEditAvatar, nil) }
func (a *App) OpenAddPlace()    { a.open(PopupAddPlace, nil) }

// OpenImagePreview shows card full size.
func (a *App) OpenImagePreview(card models.Card) { a.open(PopupImagePreview, &card) }

// OpenConfirmDelete asks before deleting card.
func (a *App) OpenConfirmDelete(card models.Card) { a.open(PopupConfirmDelete, &card) }

// CloseAllPopups closes whatever is open, including the tooltip.
func (a *App) CloseAllPopups() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closeAllLocked()
}

func (a *App) closeAllLocked() {
	a.popup = PopupNone
	a.selectedCard = nil
	a.tooltip.Open = false
}

// Restore tries to resume an existing session. Failure leaves the app
// logged out and is only logged.
func (a *App) Restore(ctx context.Context) bool {
	user, err := a.api.Me(ctx)
	if err != nil {
		a.logger.InfoContext(ctx, "session restore failed", slog.String("error", err.Error()))
		return false
	}
	a.setSession(user)
	a.loadCards(ctx)
	return true
}

// Login signs in and loads the user and the cards.
func (a *App) Login(ctx context.Context, email, password string) error {
	if err := a.api.Signin(ctx, Credentials{Email: email, Password: password}); err != nil {
		return err
	}
	user, err := a.api.Me(ctx)
	if err != nil {
		return err
	}
	a.setSession(user)
	a.loadCards(ctx)
	return nil
}

// Register creates an account and opens the tooltip with the outcome.
func (a *App) Register(ctx context.Context, email, password string) error {
	_, err := a.api.Signup(ctx, Credentials{Email: email, Password: password})

	a.mu.Lock()
	a.tooltip = Tooltip{Open: true, Success: err == nil}
	a.mu.Unlock()
	return err
}

// Logout ends the session on the server and resets local state.
func (a *App) Logout(ctx context.Context) error {
	err := a.api.Signout(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.loggedIn = false
	a.email = ""
	a.currentUser = models.User{}
	a.cards = []models.Card{}
	a.closeAllLocked()
	return err
}

// ToggleLike flips the current user's like and swaps in the server's card.
func (a *App) ToggleLike(ctx context.Context, card models.Card) error {
	a.mu.Lock()
	liked := card.IsLikedBy(a.currentUser.ID)
	a.mu.Unlock()

	updated, err := a.api.SetLike(ctx, card.ID, !liked)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.cards {
		if a.cards[i].ID == updated.ID {
			a.cards[i] = *updated
		}
	}
	return nil
}

// ConfirmDelete deletes the card chosen in OpenConfirmDelete.
func (a *App) ConfirmDelete(ctx context.Context) error {
	a.mu.Lock()
	pending := a.selectedCard
	isDelete := a.popup == PopupConfirmDelete
	a.mu.Unlock()
	if !isDelete || pending == nil {
		return ErrNoPendingCard
	}

	if err := a.api.DeleteCard(ctx, pending.ID); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	kept := a.cards[:0]
	for _, c := range a.cards {
		if c.ID != pending.ID {
			kept = append(kept, c)
		}
	}
	a.cards = kept
	a.closeAllLocked()
	return nil
}

// AddCard creates a card and puts it first.
func (a *App) AddCard(ctx context.Context, name, link string) error {
	card, err := a.api.CreateCard(ctx, name, link)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.cards = append([]models.Card{*card}, a.cards...)
	a.closeAllLocked()
	return nil
}

// UpdateProfile saves name and about.
func (a *App) UpdateProfile(ctx context.Context, name, about string) error {
	user, err := a.api.UpdateProfile(ctx, name, about)
	if err != nil {
		return err
	}
	a.replaceUser(user)
	return nil
}

// UpdateAvatar saves the avatar URL.
func (a *App) UpdateAvatar(ctx context.Context, avatar string) error {
	user, err := a.api.UpdateAvatar(ctx, avatar)
	if err != nil {
		return err
	}
	a.replaceUser(user)
	return nil
}

func (a *App) replaceUser(user *models.User) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.currentUser = *user
	a.closeAllLocked()
}

func (a *App) setSession(user *models.User) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loggedIn = true
	a.email = user.Email
	a.currentUser = *user
}

func (a *App) loadCards(ctx context.Context) {
	cards, err := a.api.Cards(ctx)
	if err != nil {
		a.logger.WarnContext(ctx, "loading cards failed", slog.String("error", err.Error()))
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.cards = cards
}
