package ledger

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ellifont/NFT-platform/internal/auth"
	"github.com/ellifont/NFT-platform/internal/entity"
	"github.com/ellifont/NFT-platform/internal/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	singleContract = "0x0000000000000000000000000000000000000721"
	minter         = "0xminter"
	alice          = "0xalice"
	bob            = "0xbob"
	carol          = "0xcarol"
)

type recordingEmitter struct {
	events []recordedEvent
}

type recordedEvent struct {
	eventType event.Type
	msg       interface{}
}

func (e *recordingEmitter) Emit(eventType event.Type, msg interface{}) {
	e.events = append(e.events, recordedEvent{eventType, msg})
}

func (e *recordingEmitter) ofType(eventType event.Type) []interface{} {
	out := make([]interface{}, 0)
	for _, rec := range e.events {
		if rec.eventType == eventType {
			out = append(out, rec.msg)
		}
	}
	return out
}

type rejectingReceiver struct{}

func (rejectingReceiver) OnTokenReceived(operator, from string, tokenId, quantity uint64) error {
	return errors.New("not accepted")
}

func newSingleFixture() (*SingleEdition, *ReceiverRegistry, *recordingEmitter) {
	roles := auth.NewRoles()
	roles.Grant(auth.MinterRole, minter)
	roles.Grant(auth.AdminRole, "0xadmin")

	receivers := NewReceiverRegistry()
	emitter := &recordingEmitter{}

	return NewSingleEdition(singleContract, roles, receivers, 500, emitter), receivers, emitter
}

func TestSingleMint(t *testing.T) {
	l, _, emitter := newSingleFixture()

	tokenId, err := l.Mint(minter, alice, "ipfs://meta/1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), tokenId)

	owner, err := l.OwnerOf(tokenId)
	require.NoError(t, err)
	assert.Equal(t, alice, owner)

	creator, err := l.CreatorOf(tokenId)
	require.NoError(t, err)
	assert.Equal(t, alice, creator)

	uri, err := l.TokenURI(tokenId)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://meta/1", uri)

	minted := emitter.ofType(event.TokenMintedEvent)
	require.Len(t, minted, 1)
	assert.Equal(t, alice, minted[0].(event.TokenMinted).Owner)
}

func TestSingleMintForKeepsCreatorOnRecord(t *testing.T) {
	l, _, _ := newSingleFixture()

	tokenId, err := l.MintFor(minter, alice, carol, "ipfs://meta/1")
	require.NoError(t, err)

	creator, err := l.CreatorOf(tokenId)
	require.NoError(t, err)
	assert.Equal(t, carol, creator)

	receiver, amount, err := l.RoyaltyInfo(tokenId, big.NewInt(10000))
	require.NoError(t, err)
	assert.Equal(t, carol, receiver)
	assert.Equal(t, big.NewInt(500), amount)
}

func TestSingleMintRequiresMinterRole(t *testing.T) {
	l, _, _ := newSingleFixture()

	_, err := l.Mint(alice, alice, "ipfs://meta/1")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSingleMintValidatesAddresses(t *testing.T) {
	l, _, _ := newSingleFixture()

	_, err := l.MintFor(minter, entity.ZeroAddress, alice, "ipfs://meta/1")
	assert.ErrorIs(t, err, ErrInvalidReceiver)

	_, err = l.MintFor(minter, alice, "", "ipfs://meta/1")
	assert.ErrorIs(t, err, ErrInvalidCreator)
}

func TestSingleMintIdsAreNeverReused(t *testing.T) {
	l, _, _ := newSingleFixture()

	first, err := l.Mint(minter, alice, "ipfs://meta/1")
	require.NoError(t, err)
	require.NoError(t, l.Burn(alice, first))

	second, err := l.Mint(minter, alice, "ipfs://meta/2")
	require.NoError(t, err)

	assert.Equal(t, first+1, second)
	assert.False(t, l.Exists(first))
	assert.Equal(t, uint64(2), l.TotalMinted())
}

func TestSingleMintRejectedByReceiver(t *testing.T) {
	l, receivers, emitter := newSingleFixture()
	receivers.Register(bob, rejectingReceiver{})

	_, err := l.Mint(minter, bob, "ipfs://meta/1")

	assert.ErrorIs(t, err, ErrTransferRejected)
	assert.False(t, l.Exists(1))
	assert.Empty(t, emitter.ofType(event.TokenMintedEvent))

	_, bound := l.royalties.royalties[1]
	assert.False(t, bound)
}

func TestSingleBurn(t *testing.T) {
	l, _, emitter := newSingleFixture()
	tokenId, _ := l.Mint(minter, alice, "ipfs://meta/1")

	require.NoError(t, l.Burn(alice, tokenId))

	_, err := l.OwnerOf(tokenId)
	assert.ErrorIs(t, err, ErrNotFound)

	burned := emitter.ofType(event.TokenBurnedEvent)
	require.Len(t, burned, 1)
	assert.Equal(t, alice, burned[0].(event.TokenBurned).Holder)
}

func TestSingleBurnRequiresOwnerOrOperator(t *testing.T) {
	l, _, _ := newSingleFixture()
	tokenId, _ := l.Mint(minter, alice, "ipfs://meta/1")

	assert.ErrorIs(t, l.Burn(bob, tokenId), ErrNotApproved)

	l.SetApprovalForAll(alice, bob, true)
	assert.NoError(t, l.Burn(bob, tokenId))
}

func TestSingleTransferFrom(t *testing.T) {
	l, _, emitter := newSingleFixture()
	tokenId, _ := l.Mint(minter, alice, "ipfs://meta/1")

	require.NoError(t, l.TransferFrom(alice, alice, bob, tokenId))

	owner, err := l.OwnerOf(tokenId)
	require.NoError(t, err)
	assert.Equal(t, bob, owner)

	transferred := emitter.ofType(event.TokenTransferredEvent)
	require.Len(t, transferred, 1)
}

func TestSingleTransferFromClearsApproval(t *testing.T) {
	l, _, _ := newSingleFixture()
	tokenId, _ := l.Mint(minter, alice, "ipfs://meta/1")

	require.NoError(t, l.Approve(alice, carol, tokenId))
	require.NoError(t, l.TransferFrom(carol, alice, bob, tokenId))

	approved, err := l.GetApproved(tokenId)
	require.NoError(t, err)
	assert.Empty(t, approved)

	// Stale approval must not survive the ownership change.
	err = l.TransferFrom(carol, bob, carol, tokenId)
	assert.ErrorIs(t, err, ErrNotApproved)
}

func TestSingleTransferFromChecks(t *testing.T) {
	l, _, _ := newSingleFixture()
	tokenId, _ := l.Mint(minter, alice, "ipfs://meta/1")

	assert.ErrorIs(t, l.TransferFrom(alice, alice, bob, 99), ErrNotFound)
	assert.ErrorIs(t, l.TransferFrom(bob, bob, carol, tokenId), ErrNotOwner)
	assert.ErrorIs(t, l.TransferFrom(bob, alice, carol, tokenId), ErrNotApproved)
	assert.ErrorIs(t, l.TransferFrom(alice, alice, entity.ZeroAddress, tokenId), ErrInvalidReceiver)
}

func TestSingleTransferRejectedByReceiverIsUndone(t *testing.T) {
	l, receivers, _ := newSingleFixture()
	tokenId, _ := l.Mint(minter, alice, "ipfs://meta/1")
	receivers.Register(bob, rejectingReceiver{})

	err := l.TransferFrom(alice, alice, bob, tokenId)

	assert.ErrorIs(t, err, ErrTransferRejected)
	owner, ownerErr := l.OwnerOf(tokenId)
	require.NoError(t, ownerErr)
	assert.Equal(t, alice, owner)
}

func TestSingleSetRoyalty(t *testing.T) {
	l, _, emitter := newSingleFixture()
	tokenId, _ := l.Mint(minter, alice, "ipfs://meta/1")

	require.NoError(t, l.SetRoyalty(alice, tokenId, carol, 750))

	receiver, amount, err := l.RoyaltyInfo(tokenId, big.NewInt(10000))
	require.NoError(t, err)
	assert.Equal(t, carol, receiver)
	assert.Equal(t, big.NewInt(750), amount)

	updated := emitter.ofType(event.RoyaltyUpdatedEvent)
	require.Len(t, updated, 1)
}

func TestSingleSetRoyaltyAuthorization(t *testing.T) {
	l, _, _ := newSingleFixture()
	tokenId, _ := l.Mint(minter, alice, "ipfs://meta/1")

	assert.ErrorIs(t, l.SetRoyalty(bob, tokenId, bob, 100), ErrUnauthorized)
	assert.NoError(t, l.SetRoyalty("0xadmin", tokenId, carol, 100))
}

func TestSingleSetRoyaltyValidation(t *testing.T) {
	l, _, _ := newSingleFixture()
	tokenId, _ := l.Mint(minter, alice, "ipfs://meta/1")

	assert.ErrorIs(t, l.SetRoyalty(alice, tokenId, carol, 1001), ErrInvalidRate)
	assert.ErrorIs(t, l.SetRoyalty(alice, tokenId, entity.ZeroAddress, 100), ErrInvalidReceiver)
	assert.ErrorIs(t, l.SetRoyalty(alice, 99, carol, 100), ErrNotFound)
}

func TestSingleRoyaltyInfoFloorsDivision(t *testing.T) {
	l, _, _ := newSingleFixture()
	tokenId, _ := l.Mint(minter, alice, "ipfs://meta/1")

	// 500 bps of 999 is 49.95, floored to 49.
	_, amount, err := l.RoyaltyInfo(tokenId, big.NewInt(999))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(49), amount)
}

func TestSingleRoyaltyInfoBurnedToken(t *testing.T) {
	l, _, _ := newSingleFixture()
	tokenId, _ := l.Mint(minter, alice, "ipfs://meta/1")
	require.NoError(t, l.Burn(alice, tokenId))

	_, _, err := l.RoyaltyInfo(tokenId, big.NewInt(10000))
	assert.ErrorIs(t, err, ErrNotFound)
}
