//go:build integration

package relay_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"sidesa/internal/platform/config"
	"sidesa/internal/platform/kafka"
	platformpg "sidesa/internal/platform/postgres"
	"sidesa/pkg/domain"
	audit "sidesa/pkg/platform/audit"
	"sidesa/pkg/platform/audit/relay"
	"sidesa/pkg/platform/audit/store/postgres"
	"sidesa/pkg/testutil/containers"
)

type RelaySuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	redpanda *containers.RedpandaContainer
	store    *postgres.Store
	producer *kafka.Producer
	relay    *relay.Relay
	topic    string
}

func TestRelaySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.redpanda = mgr.GetRedpanda(s.T())
	s.topic = "sidesa.access-log.test"

	producer, err := kafka.NewProducer(config.KafkaConfig{Brokers: s.redpanda.Brokers, AuditTopic: s.topic})
	s.Require().NoError(err)
	s.Require().NoError(producer.EnsureTopic(context.Background(), 1, 1))
	s.producer = producer

	s.store = postgres.New(s.postgres.DB)
	tx := platformpg.NewTxRunner(s.postgres.DB, 10*time.Second)
	s.relay = relay.New(s.store, s.producer, tx.RunInTx, relay.WithBatchSize(10))
}

func (s *RelaySuite) TearDownSuite() {
	if s.producer != nil {
		s.producer.Close()
	}
}

func (s *RelaySuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "access_logs", "outbox"))
}

func (s *RelaySuite) TestDrainPublishesAppendedEntries() {
	ctx := context.Background()
	for _, ticket := range []string{"ASP-1", "ASP-2"} {
		s.Require().NoError(s.store.Append(ctx, audit.Entry{
			ID:          domain.NewLogEntryID(),
			Action:      audit.ActionAccessDenied,
			PerformedBy: "op-admin",
			TicketCode:  ticket,
			CreatedAt:   time.Now().UTC(),
		}))
	}

	n, err := s.relay.Drain(ctx)
	s.Require().NoError(err)
	s.Equal(2, n)

	n, err = s.relay.Drain(ctx)
	s.Require().NoError(err)
	s.Zero(n)

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Brokers...),
		kgo.ConsumeTopics(s.topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetchCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	keys := map[string]bool{}
	for len(keys) < 2 {
		fetches := consumer.PollFetches(fetchCtx)
		s.Require().NoError(fetchCtx.Err())
		fetches.EachRecord(func(r *kgo.Record) {
			keys[string(r.Key)] = true
		})
	}
	s.True(keys["ASP-1"])
	s.True(keys["ASP-2"])
}
