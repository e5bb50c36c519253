// Package session groups the client-side state a checkout depends on:
// the signed-in user, the selected shop, and the cart aggregate. The
// stores are owned explicitly by the session rather than living as
// package globals, which makes clear-on-logout a composition rule.
package session

import (
	"github.com/quickbites/order-service/internal/cart"
	"github.com/quickbites/order-service/internal/domain"
)

type ShopSelection struct {
	ShopID      string
	ShopName    string
	ShopAddress string
	OrderType   domain.OrderType
}

func (s ShopSelection) Selected() bool {
	return s.ShopID != "" && s.OrderType != ""
}

type Session struct {
	UserID string
	Shop   ShopSelection
	Cart   *cart.Aggregate
}

func New(userID string) *Session {
	return &Session{
		UserID: userID,
		Cart:   cart.New(),
	}
}

func (s *Session) SetShop(sel ShopSelection) {
	s.Shop = sel
}

func (s *Session) ClearShop() {
	s.Shop = ShopSelection{}
}

// Reset tears the session down on logout: every owned store is cleared.
func (s *Session) Reset() {
	s.UserID = ""
	s.ClearShop()
	s.Cart.Clear()
}
