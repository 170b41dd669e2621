package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/posrelay/internal/model"
)

type StoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
}

// AddPlayer tests

func (s *StoreSuite) TestAddPlayerCreatesOnlineRecord() {
	err := s.store.AddPlayer(s.ctx, "p1", "Ann", "red", model.Position{})
	s.Require().NoError(err)

	info, err := s.store.SnapshotInfo(s.ctx)
	s.Require().NoError(err)
	s.Equal(model.PlayerInfo{Name: "Ann", Color: "red", Online: true}, info["p1"])

	positions, err := s.store.SnapshotPositions(s.ctx)
	s.Require().NoError(err)
	s.Equal(model.Position{}, positions["p1"])
}

func (s *StoreSuite) TestAddPlayerOverwritesSameID() {
	_ = s.store.AddPlayer(s.ctx, "p1", "Ann", "red", model.Position{X: 1, Y: 2})
	_ = s.store.AddPlayer(s.ctx, "p1", "Ann", "blue", model.Position{X: 3, Y: 4})

	info, _ := s.store.SnapshotInfo(s.ctx)
	s.Len(info, 1)
	s.Equal("blue", info["p1"].Color)
	s.Equal(model.Position{X: 3, Y: 4}, info["p1"].Position)
}

// UpsertPosition tests

func (s *StoreSuite) TestUpsertPositionMirrorsIntoInfo() {
	_ = s.store.AddPlayer(s.ctx, "p1", "Ann", "red", model.Position{})

	err := s.store.UpsertPosition(s.ctx, "p1", model.Position{X: 5, Y: 7})
	s.Require().NoError(err)

	positions, _ := s.store.SnapshotPositions(s.ctx)
	s.Equal(model.Position{X: 5, Y: 7}, positions["p1"])

	info, _ := s.store.SnapshotInfo(s.ctx)
	s.Equal(model.Position{X: 5, Y: 7}, info["p1"].Position)
}

func (s *StoreSuite) TestUpsertPositionIsIdempotent() {
	_ = s.store.UpsertPosition(s.ctx, "p1", model.Position{X: 5, Y: 7})
	first, _ := s.store.SnapshotPositions(s.ctx)

	_ = s.store.UpsertPosition(s.ctx, "p1", model.Position{X: 5, Y: 7})
	second, _ := s.store.SnapshotPositions(s.ctx)

	s.Equal(first, second)
}

func (s *StoreSuite) TestUpsertPositionWithoutInfo() {
	// A move can arrive before any join for the same identifier
	err := s.store.UpsertPosition(s.ctx, "p1", model.Position{X: 1, Y: 1})
	s.Require().NoError(err)

	positions, _ := s.store.SnapshotPositions(s.ctx)
	s.Contains(positions, model.PlayerID("p1"))

	info, _ := s.store.SnapshotInfo(s.ctx)
	s.NotContains(info, model.PlayerID("p1"))
}

// SetOffline tests

func (s *StoreSuite) TestSetOffline() {
	_ = s.store.AddPlayer(s.ctx, "p1", "Ann", "red", model.Position{})

	err := s.store.SetOffline(s.ctx, "p1")
	s.Require().NoError(err)

	info, _ := s.store.SnapshotInfo(s.ctx)
	s.False(info["p1"].Online)
}

func (s *StoreSuite) TestSetOfflineUnknownPlayerIsNoop() {
	err := s.store.SetOffline(s.ctx, "ghost")
	s.NoError(err)

	info, _ := s.store.SnapshotInfo(s.ctx)
	s.Empty(info)
}

func (s *StoreSuite) TestSetOfflineRetainsState() {
	_ = s.store.AddPlayer(s.ctx, "p1", "Ann", "red", model.Position{})
	_ = s.store.UpsertPosition(s.ctx, "p1", model.Position{X: 5, Y: 7})
	_ = s.store.SetOffline(s.ctx, "p1")

	info, _ := s.store.SnapshotInfo(s.ctx)
	s.Equal("Ann", info["p1"].Name)
	s.Equal(model.Position{X: 5, Y: 7}, info["p1"].Position)
}

// FindByName tests

func (s *StoreSuite) TestFindByName() {
	_ = s.store.AddPlayer(s.ctx, "p1", "Ann", "red", model.Position{})

	id, err := s.store.FindByName(s.ctx, "Ann")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p1"), id)
}

func (s *StoreSuite) TestFindByNameNotFound() {
	_, err := s.store.FindByName(s.ctx, "Nobody")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StoreSuite) TestFindByNameFindsOfflinePlayers() {
	_ = s.store.AddPlayer(s.ctx, "p1", "Ann", "red", model.Position{})
	_ = s.store.SetOffline(s.ctx, "p1")

	id, err := s.store.FindByName(s.ctx, "Ann")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p1"), id)
}

func (s *StoreSuite) TestFindByNameMostRecentJoinWins() {
	// Two records can share a display name; lookup resolves to the most
	// recent join under it, deterministically.
	_ = s.store.AddPlayer(s.ctx, "p1", "Ann", "red", model.Position{})
	_ = s.store.AddPlayer(s.ctx, "p2", "Ann", "blue", model.Position{})

	id, err := s.store.FindByName(s.ctx, "Ann")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p2"), id)
}

// MigrateID tests

func (s *StoreSuite) TestMigrateIDMovesStateAndForcesOnline() {
	_ = s.store.AddPlayer(s.ctx, "p1", "Ann", "red", model.Position{})
	_ = s.store.UpsertPosition(s.ctx, "p1", model.Position{X: 5, Y: 7})
	_ = s.store.SetOffline(s.ctx, "p1")

	err := s.store.MigrateID(s.ctx, "p1", "p2")
	s.Require().NoError(err)

	info, _ := s.store.SnapshotInfo(s.ctx)
	s.NotContains(info, model.PlayerID("p1"))
	s.Equal("Ann", info["p2"].Name)
	s.True(info["p2"].Online)
	s.Equal(model.Position{X: 5, Y: 7}, info["p2"].Position)

	positions, _ := s.store.SnapshotPositions(s.ctx)
	s.NotContains(positions, model.PlayerID("p1"))
	s.Equal(model.Position{X: 5, Y: 7}, positions["p2"])
}

func (s *StoreSuite) TestMigrateIDUpdatesNameIndex() {
	_ = s.store.AddPlayer(s.ctx, "p1", "Ann", "red", model.Position{})
	_ = s.store.MigrateID(s.ctx, "p1", "p2")

	id, err := s.store.FindByName(s.ctx, "Ann")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p2"), id)
}

func (s *StoreSuite) TestMigrateIDSameIDRemarksOnline() {
	_ = s.store.AddPlayer(s.ctx, "p1", "Ann", "red", model.Position{X: 2, Y: 3})
	_ = s.store.SetOffline(s.ctx, "p1")

	err := s.store.MigrateID(s.ctx, "p1", "p1")
	s.Require().NoError(err)

	info, _ := s.store.SnapshotInfo(s.ctx)
	s.Len(info, 1)
	s.True(info["p1"].Online)
	s.Equal(model.Position{X: 2, Y: 3}, info["p1"].Position)
}

func (s *StoreSuite) TestMigrateIDUnknownSource() {
	err := s.store.MigrateID(s.ctx, "ghost", "p2")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Snapshot tests

func (s *StoreSuite) TestSnapshotsAreIndependentCopies() {
	_ = s.store.AddPlayer(s.ctx, "p1", "Ann", "red", model.Position{})

	info, _ := s.store.SnapshotInfo(s.ctx)
	info["p1"] = model.PlayerInfo{Name: "Tampered"}
	delete(info, "p1")

	fresh, _ := s.store.SnapshotInfo(s.ctx)
	s.Equal("Ann", fresh["p1"].Name)
}

func (s *StoreSuite) TestOnlinePlayersFiltersOffline() {
	_ = s.store.AddPlayer(s.ctx, "p1", "Ann", "red", model.Position{})
	_ = s.store.AddPlayer(s.ctx, "p2", "Bob", "blue", model.Position{})
	_ = s.store.SetOffline(s.ctx, "p1")

	online, err := s.store.OnlinePlayers(s.ctx)
	s.Require().NoError(err)
	s.Len(online, 1)
	s.Contains(online, model.PlayerID("p2"))
}
