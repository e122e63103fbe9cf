package state

import (
	"encoding/binary"

	"stakeledger/core/types"
)

var (
	ownerPrefix              = []byte("ledger/owner/")
	ownedHotkeysPrefix       = []byte("ledger/owned-hotkeys/")
	stakingHotkeysPrefix     = []byte("ledger/staking-hotkeys/")
	stakePrefix              = []byte("ledger/stake/")
	alphaPrefix              = []byte("ledger/alpha/")
	totalHotkeyAlphaPrefix   = []byte("ledger/total-hotkey-alpha/")
	totalHotkeyStakePrefix   = []byte("ledger/total-hotkey-stake/")
	totalColdkeyStakePrefix  = []byte("ledger/total-coldkey-stake/")
	stakesThisIntervalPrefix = []byte("ledger/stakes-this-interval/")
	lastTxBlockPrefix        = []byte("ledger/last-tx-block/")
	delegatePrefix           = []byte("ledger/delegate/")
	balancePrefix            = []byte("ledger/balance/")

	subnetAlphaPrefix     = []byte("subnet/alpha/")
	subnetTAOPrefix       = []byte("subnet/tao/")
	subnetMechanismPrefix = []byte("subnet/mechanism/")
	subnetOwnerPrefix     = []byte("subnet/owner/")
	subnetListKey         = []byte("subnet/list")

	totalStakeKey    = []byte("ledger/total-stake")
	totalIssuanceKey = []byte("ledger/total-issuance")
	senateMembersKey = []byte("governance/senate-members")
)

func compositeKey(prefix []byte, parts ...[]byte) []byte {
	size := len(prefix)
	for _, part := range parts {
		size += len(part)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, prefix...)
	for _, part := range parts {
		buf = append(buf, part...)
	}
	return buf
}

func subnetBytes(netuid types.SubnetID) []byte {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], uint16(netuid))
	return buf[:]
}

func ownerKey(h types.HotKey) []byte { return compositeKey(ownerPrefix, h[:]) }

func ownedHotkeysKey(c types.ColdKey) []byte { return compositeKey(ownedHotkeysPrefix, c[:]) }

func stakingHotkeysKey(c types.ColdKey) []byte { return compositeKey(stakingHotkeysPrefix, c[:]) }

func stakeKey(h types.HotKey, c types.ColdKey) []byte { return compositeKey(stakePrefix, h[:], c[:]) }

func alphaKey(h types.HotKey, c types.ColdKey, netuid types.SubnetID) []byte {
	return compositeKey(alphaPrefix, h[:], c[:], subnetBytes(netuid))
}

func totalHotkeyAlphaKey(h types.HotKey, netuid types.SubnetID) []byte {
	return compositeKey(totalHotkeyAlphaPrefix, h[:], subnetBytes(netuid))
}

func totalHotkeyStakeKey(h types.HotKey) []byte { return compositeKey(totalHotkeyStakePrefix, h[:]) }

func totalColdkeyStakeKey(c types.ColdKey) []byte {
	return compositeKey(totalColdkeyStakePrefix, c[:])
}

func stakesThisIntervalKey(h types.HotKey, c types.ColdKey) []byte {
	return compositeKey(stakesThisIntervalPrefix, h[:], c[:])
}

func lastTxBlockKey(c types.ColdKey) []byte { return compositeKey(lastTxBlockPrefix, c[:]) }

func delegateKey(h types.HotKey) []byte { return compositeKey(delegatePrefix, h[:]) }

func balanceKey(c types.ColdKey) []byte { return compositeKey(balancePrefix, c[:]) }

func subnetAlphaKey(netuid types.SubnetID) []byte {
	return compositeKey(subnetAlphaPrefix, subnetBytes(netuid))
}

func subnetTAOKey(netuid types.SubnetID) []byte {
	return compositeKey(subnetTAOPrefix, subnetBytes(netuid))
}

func subnetMechanismKey(netuid types.SubnetID) []byte {
	return compositeKey(subnetMechanismPrefix, subnetBytes(netuid))
}

func subnetOwnerKey(netuid types.SubnetID) []byte {
	return compositeKey(subnetOwnerPrefix, subnetBytes(netuid))
}
