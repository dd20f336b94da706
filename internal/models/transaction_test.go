package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransactionTransitions(t *testing.T) {
	allowed := []struct {
		from, to TransactionStatus
	}{
		{TransactionPendingPayment, TransactionProcessing},
		{TransactionPendingPayment, TransactionCancelled},
		{TransactionProcessing, TransactionCompleted},
		{TransactionProcessing, TransactionDisputed},
		{TransactionDisputed, TransactionCompleted},
		{TransactionDisputed, TransactionRefunded},
	}
	for _, tr := range allowed {
		assert.True(t, tr.from.CanTransition(tr.to), "%s -> %s", tr.from, tr.to)
	}

	forbidden := []struct {
		from, to TransactionStatus
	}{
		{TransactionPendingPayment, TransactionCompleted},
		{TransactionPendingPayment, TransactionDisputed},
		{TransactionProcessing, TransactionCancelled},
		{TransactionProcessing, TransactionRefunded},
		{TransactionDisputed, TransactionCancelled},
		{TransactionCompleted, TransactionDisputed},
		{TransactionCancelled, TransactionProcessing},
		{TransactionRefunded, TransactionCompleted},
	}
	for _, tr := range forbidden {
		assert.False(t, tr.from.CanTransition(tr.to), "%s -> %s", tr.from, tr.to)
	}
}

func TestTransactionTerminalStates(t *testing.T) {
	assert.True(t, TransactionCompleted.IsTerminal())
	assert.True(t, TransactionCancelled.IsTerminal())
	assert.True(t, TransactionRefunded.IsTerminal())
	assert.False(t, TransactionPendingPayment.IsTerminal())
	assert.False(t, TransactionProcessing.IsTerminal())
	assert.False(t, TransactionDisputed.IsTerminal())
}
