package nodegroup

import "github.com/jmcastellanojimenez/ekscompose/pkg/types"

// DefaultInstanceType is used for size tags missing from the table
const DefaultInstanceType = "t3.micro"

var instanceTypes = map[types.Size]string{
	types.SizeNano:  "t3.nano",
	types.SizeNanoG: "t4g.nano",
	types.SizeXS:    DefaultInstanceType,
	types.SizeS:     "t3.medium",
	types.SizeM:     "m6a.xlarge",
	types.SizeL:     "m6a.2xlarge",
	types.SizeXL:    "m6a.4xlarge",
	types.SizeXXL:   "m6a.12xlarge",
}

// InstanceType maps a size tag to an EC2 instance type. Unknown tags
// resolve to the XS instance type.
func InstanceType(size types.Size) string {
	if instanceType, ok := instanceTypes[size]; ok {
		return instanceType
	}
	return DefaultInstanceType
}
