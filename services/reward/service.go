package reward

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"rankboard/pkg/repository"
)

// Service owns the reward-side persisted state: the wallet ledger, the
// inventory store, equip state, materialized reward items and the claim
// ledger. The distributor drives all of it through the methods on this type.
type Service struct {
	db   *gorm.DB
	node *snowflake.Node

	items    repository.Repository[Item]
	holdings repository.Repository[Holding]
	equips   repository.Repository[Equipment]
	claims   repository.Repository[Claim]
	wallet   repository.Repository[WalletEntry]
	balances repository.Repository[Balance]
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,

		items:    repository.ProvideStore[Item](p.DB),
		holdings: repository.ProvideStore[Holding](p.DB),
		equips:   repository.ProvideStore[Equipment](p.DB),
		claims:   repository.ProvideStore[Claim](p.DB),
		wallet:   repository.ProvideStore[WalletEntry](p.DB),
		balances: repository.ProvideStore[Balance](p.DB),
	}
}
