package provision

import "github.com/wolfeidau/dewrangle/internal/client"

const volumeCreateMutation = `
mutation VolumeCreate($input: VolumeCreateInput!) {
	volumeCreate(input: $input) {
		errors {
			... on MutationError {
				message
				field
			}
		}
		volume {
			id
			name
		}
	}
}`

const volumeListAndHashMutation = `
mutation VolumeListAndHash($id: ID!, $input: VolumeListAndHashInput!) {
	volumeListAndHash(id: $id, input: $input) {
		errors {
			... on MutationError {
				message
				field
			}
		}
		job {
			id
		}
	}
}`

const volumeListMutation = `
mutation VolumeList($id: ID!) {
	volumeList(id: $id) {
		errors {
			... on MutationError {
				message
				field
			}
		}
		job {
			id
		}
	}
}`

const volumeDeleteMutation = `
mutation VolumeDelete($id: ID!) {
	volumeDelete(id: $id) {
		errors {
			... on MutationError {
				message
				field
			}
		}
	}
}`

const studyCreateMutation = `
mutation StudyCreate($input: StudyCreateInput!) {
	studyCreate(input: $input) {
		errors {
			... on MutationError {
				message
				field
			}
		}
		study {
			id
			name
		}
	}
}`

type jobPayload struct {
	Errors []client.MutationError `json:"errors"`
	Job    *struct {
		ID string `json:"id"`
	} `json:"job"`
}
