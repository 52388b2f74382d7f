package pool

import (
	"lukechampine.com/uint128"

	"github.com/fullsail-labs/clmm-core/pkg/errs"
)

// FlashSwapReceipt is the hot-potato returned by FlashSwap: a move-only
// handle (unexported fields, no copy-safe zero value worth trusting) that
// must be consumed by exactly one Repay call before the caller's
// transaction can complete (§9's receipt design note).
type FlashSwapReceipt struct {
	id         uint64
	PoolID     string
	PartnerID  string // empty when no partner is attached
	A2B        bool
	PayAmount  uint64 // amount_in + fee_amount, the balance the caller owes
	AmountOut  uint64
	RefFeeRate uint64
	consumed   bool
}

// FlashSwap runs the swap step loop and escrows the output immediately,
// returning a receipt describing the balance the caller must repay before
// the operation can be considered atomic. Reserves are NOT adjusted here:
// RepayFlashSwap (or RepayFlashSwapWithPartner) performs the actual
// balance movement once the caller's payment is verified.
func (p *Pool) FlashSwap(
	partnerID string,
	a2b bool,
	byAmountIn bool,
	sqrtPriceLimit uint128.Uint128,
	amount uint64,
	refFeeRate uint64,
	protocolFeeRate uint64,
	now int64,
) (*FlashSwapReceipt, SwapResult, error) {
	result, err := p.executeSwap(a2b, byAmountIn, sqrtPriceLimit, amount, refFeeRate, protocolFeeRate, now)
	if err != nil {
		return nil, SwapResult{}, err
	}

	p.receiptSeq++
	receipt := &FlashSwapReceipt{
		id:         p.receiptSeq,
		PoolID:     p.ID,
		PartnerID:  partnerID,
		A2B:        a2b,
		PayAmount:  result.AmountIn + result.FeeAmount,
		AmountOut:  result.AmountOut,
		RefFeeRate: refFeeRate,
	}
	p.outstandingFlash[receipt.id] = receipt
	return receipt, result, nil
}

// RepayFlashSwap settles a FlashSwapReceipt with no referral partner:
// requires ref_fee_amount == 0 and paid == pay_amount on the input side,
// zero on the output side.
func (p *Pool) RepayFlashSwap(receipt *FlashSwapReceipt, poolID string, paidA, paidB uint64) error {
	return p.repayFlash(receipt, poolID, "", 0, paidA, paidB)
}

// RepayFlashSwapWithPartner settles a FlashSwapReceipt, splitting
// refFeeAmount off to the named partner. The non-partner repay path
// requires refFeeAmount == 0; this path requires the caller name the
// receipt's attached partner and refFeeAmount <= pay_amount.
func (p *Pool) RepayFlashSwapWithPartner(receipt *FlashSwapReceipt, poolID, partnerID string, refFeeAmount, paidA, paidB uint64) error {
	return p.repayFlash(receipt, poolID, partnerID, refFeeAmount, paidA, paidB)
}

func (p *Pool) repayFlash(receipt *FlashSwapReceipt, poolID, partnerID string, refFeeAmount, paidA, paidB uint64) error {
	if receipt == nil || receipt.consumed {
		return errs.New(errs.ZeroAmount, "repay_flash_swap: receipt already consumed")
	}
	if _, ok := p.outstandingFlash[receipt.id]; !ok {
		return errs.New(errs.PoolIdMismatch, "repay_flash_swap: unknown receipt")
	}
	if receipt.PoolID != poolID {
		return errs.New(errs.PoolIdMismatch, "repay_flash_swap: pool id mismatch")
	}
	if partnerID == "" {
		if refFeeAmount != 0 {
			return errs.New(errs.PartnerIdNotEmpty, "repay_flash_swap: ref_fee_amount requires a partner id")
		}
	} else {
		if receipt.PartnerID != partnerID {
			return errs.New(errs.PartnerIdMismatch, "repay_flash_swap: partner id mismatch")
		}
		if refFeeAmount > receipt.PayAmount {
			return errs.New(errs.InvalidRefFeeAmount, "repay_flash_swap: ref_fee_amount exceeds pay_amount")
		}
	}

	var paid, other uint64
	if receipt.A2B {
		paid, other = paidA, paidB
	} else {
		paid, other = paidB, paidA
	}
	if paid != receipt.PayAmount {
		return errs.New(errs.InsufficientAmount, "repay_flash_swap: paid balance does not equal pay_amount")
	}
	if other != 0 {
		return errs.New(errs.InsufficientAmount, "repay_flash_swap: other-side balance must be zero")
	}

	delete(p.outstandingFlash, receipt.id)
	receipt.consumed = true

	// the referral share goes to the partner; only the rest joins the reserve
	joined := paid - refFeeAmount
	if receipt.A2B {
		p.ReserveA += joined
		p.ReserveB -= receipt.AmountOut
	} else {
		p.ReserveB += joined
		p.ReserveA -= receipt.AmountOut
	}

	return nil
}
