package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"rankboard/pkg/config"
	"rankboard/pkg/db"
	"rankboard/pkg/logger"
	"rankboard/services/activity"
	"rankboard/services/board"
	"rankboard/services/member"
	"rankboard/services/reward"
)

// Migrates the schema and loads a minimal member directory so a fresh
// install has something to rank.
func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		fx.Invoke(migrate, seedMembers),
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
	_ = app.Stop(ctx)
}

func migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&member.Member{},
		&board.Board{},
		&board.ManualEntry{},
		&board.Tombstone{},
		&activity.WorkItem{},
		&activity.WorkItemShare{},
		&activity.Post{},
		&activity.DriverRun{},
		&activity.LateRecord{},
		&reward.Item{},
		&reward.Holding{},
		&reward.Equipment{},
		&reward.Claim{},
		&reward.WalletEntry{},
		&reward.Balance{},
	)
}

func seedMembers(gdb *gorm.DB) error {
	members := []member.Member{
		{ID: "admin", DisplayName: "Administrator", IsAdmin: true},
		{ID: "alice", DisplayName: "Alice"},
		{ID: "bob", DisplayName: "Bob"},
	}

	for _, m := range members {
		var count int64
		if err := gdb.Model(&member.Member{}).Where("id = ?", m.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		m.CreatedAt = time.Now()
		m.UpdatedAt = time.Now()
		if err := gdb.Create(&m).Error; err != nil {
			return err
		}
		zap.L().Info("seeded member", zap.String("member_id", m.ID))
	}
	return nil
}
