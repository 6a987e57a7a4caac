package domain

var Tables = []interface{}{
	// System
	&SysConfig{},
	&SysOpr{},
	// Catalog
	&Product{},
	&ProductIngredient{},
	// Inventory
	&InventoryItem{},
	// Sales
	&Customer{},
	&CartItem{},
	&Order{},
	&OrderItem{},
	&Sale{},
	&Receipt{},
	&ArchivedSale{},
}
