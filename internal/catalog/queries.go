package catalog

const allStudiesQuery = `
query AllStudies {
	viewer {
		studyUsers {
			edges {
				node {
					study {
						id
						name
						globalId
					}
				}
			}
		}
		organizationUsers {
			edges {
				node {
					organization {
						id
						name
						studies {
							edges {
								node {
									id
									name
									globalId
								}
							}
						}
					}
				}
			}
		}
	}
}`

const organizationsQuery = `
query Organizations {
	viewer {
		organizationUsers {
			edges {
				node {
					organization {
						id
						name
					}
				}
			}
		}
	}
}`

const studyOrganizationQuery = `
query StudyOrganization($id: ID!) {
	study: node(id: $id) {
		... on Study {
			organization {
				id
			}
		}
	}
}`

const studyCredentialsQuery = `
query StudyCredentials($id: ID!) {
	study: node(id: $id) {
		id
		... on Study {
			credentials {
				edges {
					node {
						id
						name
						key
					}
				}
			}
		}
	}
}`

const billingGroupsQuery = `
query OrganizationBillingGroups($id: ID!) {
	organization: node(id: $id) {
		... on Organization {
			billingGroups {
				edges {
					node {
						id
						name
						isDefault
					}
				}
			}
		}
	}
}`

const studyVolumesQuery = `
query StudyVolumes($id: ID!) {
	study: node(id: $id) {
		... on Study {
			volumes {
				edges {
					node {
						id
						name
						pathPrefix
						region
						credential {
							id
						}
					}
				}
			}
		}
	}
}`

const volumeLocationsQuery = `
query VolumeLocations {
	viewer {
		organizationUsers {
			edges {
				node {
					organization {
						studies {
							edges {
								node {
									id
									volumes {
										edges {
											node {
												name
											}
										}
									}
								}
							}
						}
					}
				}
			}
		}
	}
}`
