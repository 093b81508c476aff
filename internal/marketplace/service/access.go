package service

import (
	"context"

	"charitydrive/internal/marketplace/models"
	id "charitydrive/pkg/domain"
	"charitydrive/pkg/requestcontext"
)

type role int

const (
	roleAny role = iota
	roleOperator
	roleBidder
)

// authorize checks the caller in ctx against the role an operation needs
// and returns the caller. roleAny admits anonymous callers.
func authorize(ctx context.Context, st *models.State, required role) (id.AccountID, error) {
	caller := requestcontext.Caller(ctx)
	if required == roleAny {
		return caller, nil
	}
	if caller.IsNil() {
		return caller, unauthenticated()
	}

	switch required {
	case roleOperator:
		if caller != st.Operator {
			return caller, notOperator()
		}
	case roleBidder:
		if caller == st.Operator || caller == st.Account {
			return caller, operatorCannotBid()
		}
	}
	return caller, nil
}

func requireOpen(st *models.State) error {
	if !st.Status.IsOpen() {
		return marketplaceClosed()
	}
	return nil
}

func callerOf(ctx context.Context) id.AccountID {
	return requestcontext.Caller(ctx)
}
