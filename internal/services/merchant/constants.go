package merchant

// KYC document types the platform requires before review can begin.
const (
	DocBusinessLicense  = "businessLicense"
	DocTaxCertificate   = "taxCertificate"
	DocIdentityDocument = "identityDocument"
)

var requiredKycDocuments = []string{
	DocBusinessLicense,
	DocTaxCertificate,
	DocIdentityDocument,
}

// createRetries bounds merchant id regeneration on unique-collision.
const createRetries = 3
