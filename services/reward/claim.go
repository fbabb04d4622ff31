package reward

import (
	"context"
	"time"

	"rankboard/pkg/db/option"
)

// ClaimExists reports whether a payout with this exact key was already
// recorded. Conditions are explicit so zero values (rank 0 for group goals,
// the empty member id for podium claims) still constrain the lookup.
func (s *Service) ClaimExists(ctx context.Context, boardID string, rank int, kind Kind, amount int64, period, memberID string) (bool, error) {
	claim, err := s.claims.FindOne(ctx, &Claim{},
		option.ApplyOperator(option.Condition{Field: "board_id", Operator: option.EQ, Value: boardID}),
		option.ApplyOperator(option.Condition{Field: "rank", Operator: option.EQ, Value: rank}),
		option.ApplyOperator(option.Condition{Field: "kind", Operator: option.EQ, Value: string(kind)}),
		option.ApplyOperator(option.Condition{Field: "amount", Operator: option.EQ, Value: amount}),
		option.ApplyOperator(option.Condition{Field: "period", Operator: option.EQ, Value: period}),
		option.ApplyOperator(option.Condition{Field: "member_id", Operator: option.EQ, Value: memberID}),
	)
	if err != nil {
		return false, err
	}
	return claim != nil, nil
}

// RecordClaim writes the idempotence row for a payout that just happened.
func (s *Service) RecordClaim(ctx context.Context, boardID string, rank int, kind Kind, amount int64, period, memberID string) error {
	return s.claims.Create(ctx, &Claim{
		ID:        s.node.Generate().String(),
		BoardID:   boardID,
		Rank:      rank,
		Kind:      kind,
		Amount:    amount,
		Period:    period,
		MemberID:  memberID,
		CreatedAt: time.Now(),
	})
}

// ResetClaims deletes every claim row for a board. Administrative escape
// hatch; normal operation never removes claims.
func (s *Service) ResetClaims(ctx context.Context, boardID string) error {
	return s.claims.Delete(ctx, &Claim{BoardID: boardID})
}
