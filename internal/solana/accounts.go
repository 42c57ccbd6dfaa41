package solana

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/stakehub/internal/domain"
)

// StakePoolProgramID is the stake pool program every registry pool belongs to.
var StakePoolProgramID = domain.MustPublicKey("stkBL96RZkjY5ine4TvPihGqW8UHJfch2cokjAPzV8i")

const stakeEntrySeed = "stake-entry"

var (
	stakePoolDiscriminator  = accountDiscriminator("StakePool")
	stakeEntryDiscriminator = accountDiscriminator("StakeEntry")

	// ErrWrongAccountType is returned when account data does not carry the
	// expected discriminator.
	ErrWrongAccountType = errors.New("unexpected account type")
)

// accountDiscriminator is the 8-byte prefix the program writes in front of
// every account of the given type.
func accountDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// StakePool is the decoded stake pool account. Only the fields the site
// reads are kept.
type StakePool struct {
	Bump                  uint8
	Identifier            uint64
	Authority             domain.PublicKey
	RequiresCreators      []domain.PublicKey
	RequiresCollections   []domain.PublicKey
	RequiresAuthorization bool
	OverlayText           string
	ImageURI              string
	ResetOnStake          bool
	TotalStaked           uint32
}

// StakeEntryRecord is the decoded stake entry account.
type StakeEntryRecord struct {
	Bump                uint8
	Pool                domain.PublicKey
	Amount              uint64
	OriginalMint        domain.PublicKey
	OriginalMintClaimed bool
	LastStaker          domain.PublicKey
	LastStakedAt        int64
	TotalStakeSeconds   uint64 // saturated from the on-chain u128
	StakeMintClaimed    bool
	Kind                uint8
	StakeMint           *domain.PublicKey
}

// DecodeStakePool parses raw stake pool account data.
func DecodeStakePool(data []byte) (*StakePool, error) {
	r, err := newReader(data, stakePoolDiscriminator)
	if err != nil {
		return nil, err
	}

	p := &StakePool{}
	p.Bump = r.u8()
	p.Identifier = r.u64()
	p.Authority = r.pubkey()
	p.RequiresCreators = r.pubkeys()
	p.RequiresCollections = r.pubkeys()
	p.RequiresAuthorization = r.boolean()
	p.OverlayText = r.str()
	p.ImageURI = r.str()
	p.ResetOnStake = r.boolean()
	p.TotalStaked = r.u32()

	if r.err != nil {
		return nil, fmt.Errorf("decode stake pool: %w", r.err)
	}
	return p, nil
}

// DecodeStakeEntry parses raw stake entry account data.
func DecodeStakeEntry(data []byte) (*StakeEntryRecord, error) {
	r, err := newReader(data, stakeEntryDiscriminator)
	if err != nil {
		return nil, err
	}

	e := &StakeEntryRecord{}
	e.Bump = r.u8()
	e.Pool = r.pubkey()
	e.Amount = r.u64()
	e.OriginalMint = r.pubkey()
	e.OriginalMintClaimed = r.boolean()
	e.LastStaker = r.pubkey()
	e.LastStakedAt = int64(r.u64())
	e.TotalStakeSeconds = r.u128Saturated()
	e.StakeMintClaimed = r.boolean()
	e.Kind = r.u8()
	if r.boolean() {
		k := r.pubkey()
		e.StakeMint = &k
	}

	if r.err != nil {
		return nil, fmt.Errorf("decode stake entry: %w", r.err)
	}
	return e, nil
}

// ToDomain converts the record to the API representation.
func (e *StakeEntryRecord) ToDomain(address domain.PublicKey) domain.StakeEntry {
	out := domain.StakeEntry{
		Address:           address,
		Pool:              e.Pool,
		OriginalMint:      e.OriginalMint,
		Amount:            e.Amount,
		LastStaker:        e.LastStaker,
		TotalStakeSeconds: e.TotalStakeSeconds,
		Staked:            !e.LastStaker.IsZero(),
	}
	if e.LastStakedAt > 0 {
		out.LastStakedAt = time.Unix(e.LastStakedAt, 0).UTC()
	}
	if e.StakeMint != nil {
		k := *e.StakeMint
		out.StakeMint = &k
	}
	return out
}

// StakeEntryAddress derives the stake entry of mint in pool. Fungible pools
// key entries by owner; every other pool uses the zero key.
func StakeEntryAddress(pool, mint, owner domain.PublicKey, fungible bool) (domain.PublicKey, error) {
	var user domain.PublicKey
	if fungible {
		user = owner
	}
	addr, _, err := FindProgramAddress([][]byte{
		[]byte(stakeEntrySeed),
		pool.Bytes(),
		mint.Bytes(),
		user.Bytes(),
	}, StakePoolProgramID)
	return addr, err
}

// reader is a little-endian borsh cursor. The first failure sticks in err and
// later reads return zero values.
type reader struct {
	buf []byte
	off int
	err error
}

func newReader(data []byte, disc [8]byte) (*reader, error) {
	if len(data) < len(disc) || !bytes.Equal(data[:len(disc)], disc[:]) {
		return nil, ErrWrongAccountType
	}
	return &reader{buf: data, off: len(disc)}, nil
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.buf) {
		r.err = fmt.Errorf("short buffer: need %d bytes at offset %d, have %d", n, r.off, len(r.buf))
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) u8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) boolean() bool { return r.u8() != 0 }

func (r *reader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) u64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *reader) u128Saturated() uint64 {
	lo := r.u64()
	hi := r.u64()
	if hi != 0 {
		return ^uint64(0)
	}
	return lo
}

func (r *reader) pubkey() domain.PublicKey {
	var k domain.PublicKey
	if b := r.take(domain.PublicKeyLength); b != nil {
		copy(k[:], b)
	}
	return k
}

func (r *reader) pubkeys() []domain.PublicKey {
	n := int(r.u32())
	if r.err != nil {
		return nil
	}
	if n*domain.PublicKeyLength > len(r.buf)-r.off {
		r.err = fmt.Errorf("vector length %d exceeds buffer", n)
		return nil
	}
	out := make([]domain.PublicKey, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, r.pubkey())
	}
	return out
}

func (r *reader) str() string {
	n := int(r.u32())
	return string(r.take(n))
}
