package models

import "time"

const (
	NodeTypeFile   = "file"
	NodeTypeFolder = "folder"
)

type Node struct {
	ID              string      `json:"id"`
	NodeType        string      `json:"node_type"`
	ParentID        *string     `json:"parent_id"`
	Name            string      `json:"name"`
	OwnerID         int64       `json:"owner_id"`
	OwnerName       string      `json:"owner_name"`
	CreatedAt       time.Time   `json:"created_at"`
	ModifiedAt      time.Time   `json:"modified_at"`
	Deleted         bool        `json:"deleted,omitempty"`
	Shares          ShareGrants `json:"shares"`
	InheritedShares ShareGrants `json:"inherited_shares"`
	BlobID          *string     `json:"blob_id,omitempty"`
	ContentType     *string     `json:"content_type,omitempty"`
	SizeBytes       *int64      `json:"size_bytes,omitempty"`
	Application     *string     `json:"application,omitempty"`
}

func (n *Node) IsFile() bool   { return n.NodeType == NodeTypeFile }
func (n *Node) IsFolder() bool { return n.NodeType == NodeTypeFolder }
