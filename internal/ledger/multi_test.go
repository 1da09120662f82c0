package ledger

import (
	"math/big"
	"testing"

	"github.com/ellifont/NFT-platform/internal/auth"
	"github.com/ellifont/NFT-platform/internal/entity"
	"github.com/ellifont/NFT-platform/internal/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const multiContract = "0x0000000000000000000000000000000000001155"

func newMultiFixture() (*MultiEdition, *ReceiverRegistry, *recordingEmitter) {
	roles := auth.NewRoles()
	roles.Grant(auth.MinterRole, minter)
	roles.Grant(auth.AdminRole, "0xadmin")

	receivers := NewReceiverRegistry()
	emitter := &recordingEmitter{}

	return NewMultiEdition(multiContract, roles, receivers, 500, emitter), receivers, emitter
}

func TestMultiCreateEdition(t *testing.T) {
	l, _, emitter := newMultiFixture()

	typeId, err := l.CreateEdition(minter, carol, "ipfs://editions/1", 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), typeId)

	edition, err := l.GetType(typeId)
	require.NoError(t, err)
	assert.Equal(t, carol, edition.Creator)
	assert.Equal(t, uint64(10), edition.MaxSupply)
	assert.Equal(t, uint64(0), edition.MintedSupply)
	assert.Equal(t, carol, edition.Royalty.Receiver)

	created := emitter.ofType(event.EditionCreatedEvent)
	require.Len(t, created, 1)
}

func TestMultiCreateEditionValidation(t *testing.T) {
	l, _, _ := newMultiFixture()

	_, err := l.CreateEdition(alice, carol, "ipfs://editions/1", 10)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = l.CreateEdition(minter, entity.ZeroAddress, "ipfs://editions/1", 10)
	assert.ErrorIs(t, err, ErrInvalidCreator)

	_, err = l.CreateEdition(minter, carol, "", 10)
	assert.ErrorIs(t, err, ErrInvalidURI)
}

func TestMultiMintEdition(t *testing.T) {
	l, _, emitter := newMultiFixture()
	typeId, _ := l.CreateEdition(minter, carol, "ipfs://editions/1", 10)

	require.NoError(t, l.MintEdition(minter, alice, typeId, 4))
	require.NoError(t, l.MintEdition(minter, bob, typeId, 6))

	assert.Equal(t, uint64(4), l.BalanceOf(alice, typeId))
	assert.Equal(t, uint64(6), l.BalanceOf(bob, typeId))

	edition, _ := l.GetType(typeId)
	assert.Equal(t, uint64(10), edition.MintedSupply)

	minted := emitter.ofType(event.EditionMintedEvent)
	require.Len(t, minted, 2)
}

func TestMultiMintEditionSupplyCap(t *testing.T) {
	l, _, _ := newMultiFixture()
	typeId, _ := l.CreateEdition(minter, carol, "ipfs://editions/1", 10)

	require.NoError(t, l.MintEdition(minter, alice, typeId, 10))
	assert.ErrorIs(t, l.MintEdition(minter, alice, typeId, 1), ErrSupplyExceeded)
}

func TestMultiMintedSupplyIsHighWaterMark(t *testing.T) {
	l, _, _ := newMultiFixture()
	typeId, _ := l.CreateEdition(minter, carol, "ipfs://editions/1", 10)
	require.NoError(t, l.MintEdition(minter, alice, typeId, 10))

	// Burning does not free supply for re-minting.
	require.NoError(t, l.Burn(alice, alice, typeId, 5))
	assert.ErrorIs(t, l.MintEdition(minter, alice, typeId, 1), ErrSupplyExceeded)

	edition, _ := l.GetType(typeId)
	assert.Equal(t, uint64(10), edition.MintedSupply)
	assert.Equal(t, uint64(5), l.BalanceOf(alice, typeId))
}

func TestMultiMintEditionUnboundedSupply(t *testing.T) {
	l, _, _ := newMultiFixture()
	typeId, _ := l.CreateEdition(minter, carol, "ipfs://editions/1", 0)

	assert.NoError(t, l.MintEdition(minter, alice, typeId, 1_000_000))
}

func TestMultiMintEditionChecks(t *testing.T) {
	l, _, _ := newMultiFixture()
	typeId, _ := l.CreateEdition(minter, carol, "ipfs://editions/1", 10)

	assert.ErrorIs(t, l.MintEdition(alice, alice, typeId, 1), ErrUnauthorized)
	assert.ErrorIs(t, l.MintEdition(minter, alice, typeId, 0), ErrInvalidAmount)
	assert.ErrorIs(t, l.MintEdition(minter, entity.ZeroAddress, typeId, 1), ErrInvalidReceiver)
	assert.ErrorIs(t, l.MintEdition(minter, alice, 99, 1), ErrNotFound)
}

func TestMultiCreateAndMint(t *testing.T) {
	l, _, emitter := newMultiFixture()

	typeId, err := l.CreateAndMint(minter, alice, carol, "ipfs://editions/1", 10, 4)
	require.NoError(t, err)

	assert.Equal(t, uint64(4), l.BalanceOf(alice, typeId))
	edition, _ := l.GetType(typeId)
	assert.Equal(t, uint64(4), edition.MintedSupply)

	require.Len(t, emitter.ofType(event.EditionCreatedEvent), 1)
	require.Len(t, emitter.ofType(event.EditionMintedEvent), 1)
}

func TestMultiCreateAndMintRejectsOversizedFirstMint(t *testing.T) {
	l, _, _ := newMultiFixture()

	_, err := l.CreateAndMint(minter, alice, carol, "ipfs://editions/1", 10, 11)

	assert.ErrorIs(t, err, ErrSupplyExceeded)
	assert.Equal(t, uint64(0), l.TotalTypes())
}

func TestMultiCreateAndMintUndoneWhenReceiverRejects(t *testing.T) {
	l, receivers, emitter := newMultiFixture()
	receivers.Register(bob, rejectingReceiver{})

	_, err := l.CreateAndMint(minter, bob, carol, "ipfs://editions/1", 10, 4)

	assert.ErrorIs(t, err, ErrTransferRejected)
	assert.False(t, l.TypeExists(1))
	assert.Empty(t, emitter.ofType(event.EditionCreatedEvent))
	assert.Empty(t, emitter.ofType(event.EditionMintedEvent))

	_, bound := l.royalties.royalties[1]
	assert.False(t, bound)
}

func TestMultiBurn(t *testing.T) {
	l, _, emitter := newMultiFixture()
	typeId, _ := l.CreateAndMint(minter, alice, carol, "ipfs://editions/1", 10, 5)

	require.NoError(t, l.Burn(alice, alice, typeId, 3))
	assert.Equal(t, uint64(2), l.BalanceOf(alice, typeId))

	assert.ErrorIs(t, l.Burn(alice, alice, typeId, 3), ErrInsufficientBalance)
	require.Len(t, emitter.ofType(event.TokenBurnedEvent), 1)
}

func TestMultiBurnRequiresHolderOrOperator(t *testing.T) {
	l, _, _ := newMultiFixture()
	typeId, _ := l.CreateAndMint(minter, alice, carol, "ipfs://editions/1", 10, 5)

	assert.ErrorIs(t, l.Burn(bob, alice, typeId, 1), ErrNotApproved)

	l.SetApprovalForAll(alice, bob, true)
	assert.NoError(t, l.Burn(bob, alice, typeId, 1))
}

func TestMultiTransferFrom(t *testing.T) {
	l, _, emitter := newMultiFixture()
	typeId, _ := l.CreateAndMint(minter, alice, carol, "ipfs://editions/1", 10, 5)

	require.NoError(t, l.TransferFrom(alice, alice, bob, typeId, 3))

	assert.Equal(t, uint64(2), l.BalanceOf(alice, typeId))
	assert.Equal(t, uint64(3), l.BalanceOf(bob, typeId))
	require.Len(t, emitter.ofType(event.TokenTransferredEvent), 1)
}

func TestMultiTransferFromChecks(t *testing.T) {
	l, _, _ := newMultiFixture()
	typeId, _ := l.CreateAndMint(minter, alice, carol, "ipfs://editions/1", 10, 5)

	assert.ErrorIs(t, l.TransferFrom(alice, alice, bob, typeId, 0), ErrInvalidAmount)
	assert.ErrorIs(t, l.TransferFrom(alice, alice, bob, 99, 1), ErrNotFound)
	assert.ErrorIs(t, l.TransferFrom(bob, alice, carol, typeId, 1), ErrNotApproved)
	assert.ErrorIs(t, l.TransferFrom(alice, alice, bob, typeId, 6), ErrInsufficientBalance)
	assert.ErrorIs(t, l.TransferFrom(alice, alice, entity.ZeroAddress, typeId, 1), ErrInvalidReceiver)
}

func TestMultiTransferRejectedByReceiverIsUndone(t *testing.T) {
	l, receivers, _ := newMultiFixture()
	typeId, _ := l.CreateAndMint(minter, alice, carol, "ipfs://editions/1", 10, 5)
	receivers.Register(bob, rejectingReceiver{})

	err := l.TransferFrom(alice, alice, bob, typeId, 3)

	assert.ErrorIs(t, err, ErrTransferRejected)
	assert.Equal(t, uint64(5), l.BalanceOf(alice, typeId))
	assert.Equal(t, uint64(0), l.BalanceOf(bob, typeId))
}

func TestMultiSetRoyalty(t *testing.T) {
	l, _, _ := newMultiFixture()
	typeId, _ := l.CreateAndMint(minter, alice, carol, "ipfs://editions/1", 10, 5)

	assert.ErrorIs(t, l.SetRoyalty(alice, typeId, alice, 100), ErrUnauthorized)
	require.NoError(t, l.SetRoyalty(carol, typeId, bob, 250))

	receiver, amount, err := l.RoyaltyInfo(typeId, big.NewInt(10000))
	require.NoError(t, err)
	assert.Equal(t, bob, receiver)
	assert.Equal(t, big.NewInt(250), amount)
}
