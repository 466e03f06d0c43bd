package repository

// TxStores repositorios atados a una misma transacción.
// Lo entrega el TxRunner de infraestructura a los flujos de varios pasos.
type TxStores struct {
	Companies  CompanyRepository
	Identities IdentityRepository
	Tokens     AuthTokenRepository
	Profiles   ProfileRepository
	Customers  CustomerRepository
}
