package api

// GraphQL operation documents. Field selections mirror the backend
// schema; shared selections are spliced in as fragments-by-concatenation
// to keep the documents readable.

const userFields = `
    id
    email
    firstName
    lastName
    fullName
    isActive
    dateJoined
`

const taskFields = `
    id
    title
    description
    status
    priority
    createdAt
    updatedAt
    assignee {` + userFields + `}
    project {
      id
    }
`

const projectFields = `
    id
    name
    description
    taskCount
    createdAt
    updatedAt
    owner {` + userFields + `}
`

const queryMe = `
  query GetMe {
    me {` + userFields + `}
  }
`

const queryUsers = `
  query GetUsers {
    users {` + userFields + `}
  }
`

const mutationCreateUser = `
  mutation CreateUser(
    $email: String!
    $password: String!
    $firstName: String
    $lastName: String
  ) {
    createUser(
      email: $email
      password: $password
      firstName: $firstName
      lastName: $lastName
    ) {
      user {` + userFields + `}
      success
      message
    }
  }
`

const mutationTokenAuth = `
  mutation Login($email: String!, $password: String!) {
    tokenAuth(email: $email, password: $password) {
      token
      payload
      refreshExpiresIn
    }
  }
`

const mutationVerifyToken = `
  mutation VerifyToken($token: String!) {
    verifyToken(token: $token) {
      payload
    }
  }
`

const mutationRefreshToken = `
  mutation RefreshToken($token: String!) {
    refreshToken(token: $token) {
      token
      payload
      refreshExpiresIn
    }
  }
`

const queryAllProjects = `
  query GetAllProjects {
    allProjects {` + projectFields + `}
  }
`

const queryMyProjects = `
  query GetMyProjects {
    myProjects {` + projectFields + `}
  }
`

const queryProject = `
  query GetProject($id: UUID!) {
    project(id: $id) {` + projectFields + `
      tasks {` + taskFields + `}
    }
  }
`

const mutationCreateProject = `
  mutation CreateProject($name: String!, $description: String) {
    createProject(name: $name, description: $description) {
      project {` + projectFields + `}
      success
      message
    }
  }
`

const mutationUpdateProject = `
  mutation UpdateProject($id: UUID!, $name: String, $description: String) {
    updateProject(id: $id, name: $name, description: $description) {
      project {` + projectFields + `}
      success
      message
    }
  }
`

const mutationDeleteProject = `
  mutation DeleteProject($id: UUID!) {
    deleteProject(id: $id) {
      success
      message
    }
  }
`

const queryAllTasks = `
  query GetAllTasks {
    allTasks {` + taskFields + `}
  }
`

const queryTasksByProject = `
  query GetTasksByProject($projectId: UUID!) {
    tasksByProject(projectId: $projectId) {` + taskFields + `}
  }
`

const queryTasksByStatus = `
  query GetTasksByStatus($status: TaskStatusEnum!) {
    tasksByStatus(status: $status) {` + taskFields + `}
  }
`

const queryTask = `
  query GetTask($id: UUID!) {
    task(id: $id) {` + taskFields + `}
  }
`

const queryMyTasks = `
  query GetMyTasks {
    myTasks {` + taskFields + `}
  }
`

const mutationCreateTask = `
  mutation CreateTask(
    $projectId: UUID!
    $title: String!
    $description: String
    $status: TaskStatusEnum
    $priority: TaskPriorityEnum
    $assigneeId: UUID
  ) {
    createTask(
      projectId: $projectId
      title: $title
      description: $description
      status: $status
      priority: $priority
      assigneeId: $assigneeId
    ) {
      task {` + taskFields + `}
      success
      message
    }
  }
`

const mutationUpdateTask = `
  mutation UpdateTask(
    $id: UUID!
    $title: String
    $description: String
    $status: TaskStatusEnum
    $priority: TaskPriorityEnum
    $assigneeId: UUID
  ) {
    updateTask(
      id: $id
      title: $title
      description: $description
      status: $status
      priority: $priority
      assigneeId: $assigneeId
    ) {
      task {` + taskFields + `}
      success
      message
    }
  }
`

const mutationDeleteTask = `
  mutation DeleteTask($id: UUID!) {
    deleteTask(id: $id) {
      success
      message
    }
  }
`
