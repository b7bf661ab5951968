package utilities

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

// IDScheme generates record identifiers and recognizes their shape.
type IDScheme interface {
	Name() string
	New() string
	Valid(id string) bool
}

// IDConfig selects the identifier scheme used by the store.
type IDConfig struct {
	Scheme string `env:"SCHEME" envDefault:"ksuid"`
	Node   int64  `env:"NODE" envDefault:"1"`
}

// NewIDScheme builds the scheme named in cfg.
func NewIDScheme(cfg IDConfig) (IDScheme, error) {
	switch strings.ToLower(cfg.Scheme) {
	case "", "ksuid":
		return KSUIDScheme{}, nil
	case "snowflake":
		return NewSnowflakeScheme(cfg.Node)
	case "uuid":
		return UUIDScheme{}, nil
	default:
		return nil, fmt.Errorf("unknown id scheme %q", cfg.Scheme)
	}
}

// KSUIDScheme issues 27 character base62 KSUIDs.
type KSUIDScheme struct{}

func (KSUIDScheme) Name() string { return "ksuid" }

// New generates a new globally unique KSUID string.
func (KSUIDScheme) New() string { return ksuid.New().String() }

func (KSUIDScheme) Valid(id string) bool {
	_, err := ksuid.Parse(id)
	return err == nil
}

// SnowflakeScheme issues snowflake ids from a single node. The node must be
// shared by every caller: two nodes with the same id in the same millisecond
// produce duplicates.
type SnowflakeScheme struct {
	node *snowflake.Node
}

// NewSnowflakeScheme initializes the snowflake node.
func NewSnowflakeScheme(nodeID int64) (*SnowflakeScheme, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	return &SnowflakeScheme{node: node}, nil
}

func (s *SnowflakeScheme) Name() string { return "snowflake" }

func (s *SnowflakeScheme) New() string { return s.node.Generate().String() }

func (s *SnowflakeScheme) Valid(id string) bool {
	sf, err := snowflake.ParseString(id)
	return err == nil && sf.Int64() > 0
}

// UUIDScheme issues random (v4) UUIDs.
type UUIDScheme struct{}

func (UUIDScheme) Name() string { return "uuid" }

func (UUIDScheme) New() string { return uuid.NewString() }

func (UUIDScheme) Valid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
