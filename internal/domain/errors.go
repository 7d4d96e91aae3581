package domain

import "errors"

var (
	ErrInvalidBid   = errors.New("invalid bid")
	ErrNotFound     = errors.New("auction item not found")
	ErrAuctionEnded = errors.New("auction has ended")
	ErrBidTooLow    = errors.New("bid must be higher than current bid")
	ErrContended    = errors.New("another bid is being processed")

	// ErrInvariantViolation means a caller tried to break a store invariant.
	// It points at a programming defect, never at bad input.
	ErrInvariantViolation = errors.New("auction store invariant violated")
)

type RejectReason string

const (
	ReasonInvalidBid   RejectReason = "INVALID_BID"
	ReasonNotFound     RejectReason = "NOT_FOUND"
	ReasonAuctionEnded RejectReason = "AUCTION_ENDED"
	ReasonBidTooLow    RejectReason = "BID_TOO_LOW"
	ReasonContended    RejectReason = "CONTENDED"
	ReasonInternal     RejectReason = "INTERNAL"
)

func ReasonFor(err error) RejectReason {
	switch {
	case errors.Is(err, ErrInvalidBid):
		return ReasonInvalidBid
	case errors.Is(err, ErrNotFound):
		return ReasonNotFound
	case errors.Is(err, ErrAuctionEnded):
		return ReasonAuctionEnded
	case errors.Is(err, ErrBidTooLow):
		return ReasonBidTooLow
	case errors.Is(err, ErrContended):
		return ReasonContended
	default:
		return ReasonInternal
	}
}

func (r RejectReason) Message() string {
	switch r {
	case ReasonInvalidBid:
		return "Bid increment must be a positive number"
	case ReasonNotFound:
		return "Auction item not found"
	case ReasonAuctionEnded:
		return "Auction has ended"
	case ReasonBidTooLow:
		return "Bid must be higher than current bid"
	case ReasonContended:
		return "Another bid is being processed. Please try again."
	default:
		return "Failed to place bid"
	}
}
