package factory

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/posrelay/internal/testutil"
)

type FactorySuite struct {
	suite.Suite
}

func TestFactorySuite(t *testing.T) {
	suite.Run(t, new(FactorySuite))
}

func (s *FactorySuite) TestMemoryApp() {
	app, err := New(Config{
		Logger:      testutil.NopLogger(),
		StorageType: StorageTypeMemory,
	})
	s.Require().NoError(err)

	s.NotNil(app.Storage)
	s.NotNil(app.Clock)
	s.NotNil(app.Ident)
	s.NotNil(app.Reconciler)
	s.NotNil(app.Registry)
	s.NotNil(app.Relay)
}

func (s *FactorySuite) TestEmptyStorageTypeDefaultsToMemory() {
	app, err := New(Config{Logger: testutil.NopLogger()})
	s.Require().NoError(err)
	s.NotNil(app.Storage)
}

func (s *FactorySuite) TestNilLoggerIsAccepted() {
	app, err := New(Config{StorageType: StorageTypeMemory})
	s.Require().NoError(err)
	s.NotNil(app.Relay)
}

func (s *FactorySuite) TestRedisRequiresConfig() {
	_, err := New(Config{
		Logger:      testutil.NopLogger(),
		StorageType: StorageTypeRedis,
	})
	s.Error(err)
}

func (s *FactorySuite) TestInvalidStorageType() {
	_, err := New(Config{
		Logger:      testutil.NopLogger(),
		StorageType: "etcd",
	})
	s.Error(err)
}
