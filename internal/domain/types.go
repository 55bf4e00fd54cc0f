package domain

import "github.com/google/uuid"

type AccountID = uuid.UUID

func ParseAccountID(s string) (AccountID, error) { return uuid.Parse(s) }
