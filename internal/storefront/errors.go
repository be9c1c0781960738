package storefront

import "errors"

// Every error here is shown to the user as-is.
var (
	ErrStopped            = errors.New("storefront is stopped")
	ErrCatalogUnavailable = errors.New("failed to load the menu, please try again later")
	ErrUnknownItem        = errors.New("item is not on the menu")
	ErrPromoRejected      = errors.New("promo code not found or expired")
	ErrLocationFailed     = errors.New("could not get your location, allow access and try again")
	ErrCartEmpty          = errors.New("cart is empty")
	ErrBelowMinimum       = errors.New("order total is below the minimum")
	ErrNameRequired       = errors.New("enter your name")
	ErrPhoneRequired      = errors.New("enter your phone number")
	ErrLocationRequired   = errors.New("share your location for delivery")
	ErrPromoPending       = errors.New("promo code is still being checked")
	ErrSubmitInProgress   = errors.New("order is already being sent")
	ErrAlreadySent        = errors.New("order has already been sent")
	ErrSubmitFailed       = errors.New("failed to send the order, please try again")
)
