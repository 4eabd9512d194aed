package db

// Key prefixes of the single-table layout.
const (
	UserPrefix        = "USER#"
	ItemPrefix        = "ITEM#"
	AccountPrefix     = "ACCOUNT#"
	TransactionPrefix = "TXN#"
)

func UserKey(userID string) string       { return UserPrefix + userID }
func ItemKey(itemID string) string       { return ItemPrefix + itemID }
func AccountKey(accountID string) string { return AccountPrefix + accountID }

// TransactionKey orders transactions by date, then id.
func TransactionKey(date, transactionID string) string {
	return TransactionPrefix + date + "#" + transactionID
}

func ItemRecordKeys(userID, itemID string) Record {
	return Record{
		PK:     ItemKey(itemID),
		SK:     ItemKey(itemID),
		GSI1PK: UserKey(userID),
		GSI1SK: ItemKey(itemID),
	}
}

func AccountRecordKeys(userID, itemID, accountID string) Record {
	return Record{
		PK:     ItemKey(itemID),
		SK:     AccountKey(accountID),
		GSI1PK: UserKey(userID),
		GSI1SK: AccountKey(accountID),
	}
}

func TransactionRecordKeys(userID, accountID, date, transactionID string) Record {
	return Record{
		PK:     AccountKey(accountID),
		SK:     TransactionKey(date, transactionID),
		GSI1PK: UserKey(userID),
		GSI1SK: TransactionKey(date, transactionID),
	}
}
