package entrypoint

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"

	"bundler/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOp() models.UserOperation {
	return models.UserOperation{
		Sender:               common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Nonce:                42,
		InitCode:             []byte{},
		CallData:             []byte{0xb6, 0x1d, 0x27, 0xf6, 0x00, 0x01},
		CallGasLimit:         100000,
		VerificationGasLimit: 150000,
		PreVerificationGas:   48000,
		MaxFeePerGas:         1_000_000_000,
		MaxPriorityFeePerGas: 100_000_000,
		PaymasterAndData:     nil,
		Signature:            []byte{0xde, 0xad, 0xbe, 0xef},
	}
}

// requireWidened reduces a widened value back to the 64-bit source width.
func requireWidened(t *testing.T, want int64, got *uint256.Int) {
	t.Helper()
	require.True(t, got.IsUint64())
	assert.Equal(t, uint64(want), got.Uint64())
}

func TestTranslateScenario(t *testing.T) {
	op := sampleOp()
	params, err := Translate(op)
	require.NoError(t, err)

	assert.Equal(t, op.Sender, params.Sender)
	assert.Equal(t, int64(42), params.Nonce.Int64())
	assert.Equal(t, int64(100000), params.CallGasLimit.Int64())
	assert.Empty(t, params.InitCode)
	assert.Equal(t, op.CallData, params.CallData)
	assert.Len(t, params.CallData, 6)
	assert.Empty(t, params.PaymasterAndData)
	assert.Equal(t, op.Signature, params.Signature)
}

func TestTranslateRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		op := models.UserOperation{
			Sender:               common.BigToAddress(common.Big1),
			Nonce:                rng.Int63(),
			InitCode:             randomBytes(rng),
			CallData:             randomBytes(rng),
			CallGasLimit:         rng.Int63(),
			VerificationGasLimit: rng.Int63(),
			PreVerificationGas:   rng.Int63(),
			MaxFeePerGas:         rng.Int63(),
			MaxPriorityFeePerGas: rng.Int63(),
			PaymasterAndData:     randomBytes(rng),
			Signature:            randomBytes(rng),
		}

		params, err := Translate(op)
		require.NoError(t, err)

		requireWidened(t, op.Nonce, uint256.MustFromBig(params.Nonce))
		requireWidened(t, op.CallGasLimit, uint256.MustFromBig(params.CallGasLimit))
		requireWidened(t, op.VerificationGasLimit, uint256.MustFromBig(params.VerificationGasLimit))
		requireWidened(t, op.PreVerificationGas, uint256.MustFromBig(params.PreVerificationGas))
		requireWidened(t, op.MaxFeePerGas, uint256.MustFromBig(params.MaxFeePerGas))
		requireWidened(t, op.MaxPriorityFeePerGas, uint256.MustFromBig(params.MaxPriorityFeePerGas))
		assert.Equal(t, op.InitCode, params.InitCode)
		assert.Equal(t, op.CallData, params.CallData)
		assert.Equal(t, op.PaymasterAndData, params.PaymasterAndData)
		assert.Equal(t, op.Signature, params.Signature)
	}
}

func randomBytes(rng *rand.Rand) []byte {
	b := make([]byte, rng.Intn(96))
	rng.Read(b)
	return b
}

func TestTranslateIsIdempotent(t *testing.T) {
	op := sampleOp()
	first, err := Translate(op)
	require.NoError(t, err)
	second, err := Translate(op)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTranslateMaxNonce(t *testing.T) {
	op := sampleOp()
	op.Nonce = math.MaxInt64

	params, err := Translate(op)
	require.NoError(t, err)
	assert.True(t, params.Nonce.IsInt64())
	assert.Equal(t, int64(math.MaxInt64), params.Nonce.Int64())
}

func TestTranslateRejectsNegativeFields(t *testing.T) {
	cases := map[string]func(op *models.UserOperation){
		"nonce":                func(op *models.UserOperation) { op.Nonce = -1 },
		"callGasLimit":         func(op *models.UserOperation) { op.CallGasLimit = -100000 },
		"verificationGasLimit": func(op *models.UserOperation) { op.VerificationGasLimit = math.MinInt64 },
		"preVerificationGas":   func(op *models.UserOperation) { op.PreVerificationGas = -2 },
		"maxFeePerGas":         func(op *models.UserOperation) { op.MaxFeePerGas = -3 },
		"maxPriorityFeePerGas": func(op *models.UserOperation) { op.MaxPriorityFeePerGas = -4 },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			op := sampleOp()
			mutate(&op)

			_, err := Translate(op)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidFieldValue))

			var ferr *InvalidFieldError
			require.ErrorAs(t, err, &ferr)
			assert.Equal(t, field, ferr.Field)
		})
	}
}

func TestTranslateCopiesBytes(t *testing.T) {
	op := sampleOp()
	params, err := Translate(op)
	require.NoError(t, err)

	op.CallData[0] = 0xff
	assert.Equal(t, byte(0xb6), params.CallData[0])
}

func TestWidenUnsigned(t *testing.T) {
	v, err := widen("nonce", uint64(math.MaxUint64))
	require.NoError(t, err)
	assert.Equal(t, "18446744073709551615", v.String())
}

func TestTranslateConcurrent(t *testing.T) {
	op := sampleOp()
	want, err := Translate(op)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := Translate(op)
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}
