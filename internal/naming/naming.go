package naming

import "fmt"

// StatePrefix is the key prefix of every cluster state object
const StatePrefix = "eks-cluster-cdktf"

func Cluster(cluster, project string) string {
	return fmt.Sprintf("eks-%s-%s", cluster, project)
}

func NodeGroup(cluster, project string, index int) string {
	return fmt.Sprintf("nodegroup-%s-%s-%d", cluster, project, index)
}

func KeyPair(cluster, project string) string {
	return fmt.Sprintf("ssh-keypair-%s-%s", cluster, project)
}

// KeyName is the EC2 key pair name shared by the node groups of a project
func KeyName(cluster, project string) string {
	return fmt.Sprintf("%s-%s-eks-keypair", cluster, project)
}

// EKSCluster is the EKS cluster name of a project. A file with a single
// project names its cluster after the identifier; with several projects each
// cluster is suffixed with its project so the names stay distinct.
func EKSCluster(cluster, project string, projects int) string {
	if projects <= 1 {
		return cluster
	}
	return fmt.Sprintf("%s-%s", cluster, project)
}

func Bootstrap(cluster, project string) string {
	return fmt.Sprintf("bootstrap-%s-%s", cluster, project)
}

func AddonSet(cluster, project string) string {
	return fmt.Sprintf("eksaddons-%s-%s", cluster, project)
}

func StateKey(cluster string) string {
	return fmt.Sprintf("%s/%s.tfstate", StatePrefix, cluster)
}

// SSHSecretPath is the default secret path holding the node SSH key
func SSHSecretPath(cluster string) string {
	return fmt.Sprintf("secret/%s/kube-system/ssh", cluster)
}
