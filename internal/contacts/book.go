package contacts

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"MateGuard/internal/models"
	"MateGuard/pkg/errors"
	"MateGuard/pkg/logger"
	"MateGuard/pkg/secure"
)

var (
	ErrContactLimit = errors.WithCode(1001, "maximum of 10 emergency contacts allowed")
	ErrNotFound     = errors.WithCode(1002, "contact not found")
	ErrInvalid      = errors.WithCode(1003, "name and phone are required")
)

// Book manages a user's emergency contacts inside the secure store.
// The escalation flow only ever reads; writes come from the contacts
// management surface.
type Book struct {
	store *secure.Store
	mu    sync.Mutex
}

func NewBook(store *secure.Store) *Book {
	return &Book{store: store}
}

func storeKey(userID int64) string {
	return fmt.Sprintf("emergencyContacts_%d", userID)
}

// List returns the user's contacts. Any decrypt or decode failure reads
// as an empty list; the escalation path must never crash on a garbled
// contact payload.
func (b *Book) List(userID int64) []models.EmergencyContact {
	raw, ok := b.store.Get(storeKey(userID))
	if !ok {
		return nil
	}
	var list []models.EmergencyContact
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		logger.Warn("contact list unreadable, treating as empty",
			zap.Int64("user_id", userID), zap.Error(err))
		return nil
	}
	return list
}

// Add appends a contact. The first contact for a user defaults to
// primary; later additions do not touch primacy.
func (b *Book) Add(userID int64, name, phone, relationship string) (models.EmergencyContact, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" || phone == "" {
		return models.EmergencyContact{}, ErrInvalid
	}
	if !models.ValidRelationship(relationship) {
		relationship = "other"
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.List(userID)
	if len(list) >= models.MaxEmergencyContacts {
		return models.EmergencyContact{}, ErrContactLimit
	}

	contact := models.EmergencyContact{
		ID:           nextContactID(list),
		Name:         name,
		Phone:        phone,
		Relationship: relationship,
		IsPrimary:    len(list) == 0,
	}
	list = append(list, contact)

	if err := b.save(userID, list); err != nil {
		return models.EmergencyContact{}, err
	}
	return contact, nil
}

// Update rewrites name/phone/relationship of an existing contact.
// Primacy and verification flags are left as they were.
func (b *Book) Update(userID, id int64, name, phone, relationship string) (models.EmergencyContact, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" || phone == "" {
		return models.EmergencyContact{}, ErrInvalid
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.List(userID)
	for i := range list {
		if list[i].ID != id {
			continue
		}
		list[i].Name = name
		list[i].Phone = phone
		if models.ValidRelationship(relationship) {
			list[i].Relationship = relationship
		}
		if err := b.save(userID, list); err != nil {
			return models.EmergencyContact{}, err
		}
		return list[i], nil
	}
	return models.EmergencyContact{}, ErrNotFound
}

// Delete removes a contact by id. Removing the primary contact leaves
// the remaining list without a primary; that state is tolerated.
func (b *Book) Delete(userID, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.List(userID)
	kept := list[:0]
	for _, c := range list {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(list) {
		return ErrNotFound
	}
	return b.save(userID, kept)
}

func (b *Book) save(userID int64, list []models.EmergencyContact) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return errors.Wrap(err, "encode contacts")
	}
	return b.store.Set(storeKey(userID), string(raw))
}

// nextContactID assigns a millisecond-clock id, bumped past any existing
// id so two adds in the same millisecond stay unique.
func nextContactID(existing []models.EmergencyContact) int64 {
	id := time.Now().UnixMilli()
	for _, c := range existing {
		if c.ID >= id {
			id = c.ID + 1
		}
	}
	return id
}
